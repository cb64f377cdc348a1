package response

// 业务码基于 HTTP 语义，机器可读且稳定
const (
	CodeOK           = 0
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeWrongState   = 409
	CodeRateLimited  = 429
	CodeServerError  = 500
)

// CodeMsgMap 集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:           "OK",
	CodeBadRequest:   "Bad Request",
	CodeUnauthorized: "Unauthorized",
	CodeForbidden:    "Forbidden",
	CodeNotFound:     "Not Found",
	CodeWrongState:   "Conflict",
	CodeRateLimited:  "Too Many Requests",
	CodeServerError:  "Internal Server Error",
}
