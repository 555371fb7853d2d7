package handlers

import (
	"fmt"
	"net/http"
)

// HealthHandler は認証不要の死活確認エンドポイントです。
// GET /api/health
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "ok")
}

// NotFoundHandler は存在しないパスへのリクエストにJSONでエラーを返します。
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusNotFound, "not found")
}
