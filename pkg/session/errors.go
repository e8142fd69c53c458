package session

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/client"
)

var loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dashboard_session_authentications_total",
	Help: "Login and register attempts by result",
}, []string{"operation", "result"})

// ErrorKind is the normalized failure class of Login and Register.
type ErrorKind int

const (
	// KindNone means no error.
	KindNone ErrorKind = iota
	// KindValidation means the form was rejected before any request.
	KindValidation
	// KindAuth means the server rejected the credentials.
	KindAuth
	// KindNetwork means the server could not be reached.
	KindNetwork
	// KindRejected means the server refused the request (other 4xx).
	KindRejected
	// KindServer means the server failed (5xx, rate limit).
	KindServer
	// KindOther covers everything else.
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindRejected:
		return "rejected"
	case KindServer:
		return "server"
	default:
		return "other"
	}
}

// Kind classifies an error returned by Login or Register.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if api.IsValidation(err) {
		return KindValidation
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorClass {
		case client.ErrorClassAuth:
			return KindAuth
		case client.ErrorClassNetwork:
			return KindNetwork
		case client.ErrorClassClient:
			return KindRejected
		case client.ErrorClassServer, client.ErrorClassRateLimit:
			return KindServer
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindOther
}

// Message returns a short text for showing err next to a form.
func Message(err error) string {
	switch Kind(err) {
	case KindNone:
		return ""
	case KindAuth:
		return "Invalid email or password"
	case KindNetwork:
		return "Server unreachable, try again"
	case KindServer:
		return "Server error, try again later"
	case KindRejected:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return err.Error()
}
