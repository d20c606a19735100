package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/logging"
)

// Response 是所有接口统一的响应外壳。
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error 是错误响应体，Code 供程序判断，Message 供人阅读。
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, &Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, &Response{Error: &Error{Code: code, Message: message}})
}

func writeResponse(w http.ResponseWriter, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		l := logging.Component("api")
		l.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		l := logging.Component("api")
		l.Debug().Err(err).Msg("write response")
	}
}
