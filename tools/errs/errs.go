package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Error codes returned to API callers. 1xxx = request problems,
// 15xx = auth, 19xx = server side.
const (
	CodeBadRequest     = 1001
	CodeRecordNotFound = 1004
	CodeTokenInvalid   = 1501
	CodeTokenExpired   = 1502
	CodeInternal       = 1900
)

var (
	ErrBadRequest     = NewCodeError(CodeBadRequest, "bad request")
	ErrRecordNotFound = NewCodeError(CodeRecordNotFound, "record not found")
	ErrTokenInvalid   = NewCodeError(CodeTokenInvalid, "token invalid")
	ErrTokenExpired   = NewCodeError(CodeTokenExpired, "token expired")
	ErrInternal       = NewCodeError(CodeInternal, "internal error")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{Code: code, Msg: msg}
}

func (e CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

func (e CodeError) Is(err error) bool {
	var ce CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return e.Code == ce.Code
}
