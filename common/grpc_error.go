package common

import (
	"context"
	"errors"
	"net/http"
	"rbac-admin/domain"
	"strconv"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "rbac-admin"

func IsRecordNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}

func grpcCode(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// ToGRPCError converts err into a status error carrying an ErrorInfo detail.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	de := domain.AsDetailedError(err)
	metadata := map[string]string{
		"code":   strconv.Itoa(de.StatusCodeField),
		"status": de.StatusDescField,
	}
	if de.ReasonField != "" {
		metadata["reason"] = de.ReasonField
	}
	for field, msg := range de.FieldErrors() {
		metadata["field."+field] = msg
	}

	st := status.New(grpcCode(de.StatusCodeField), de.ErrorField)
	if withDetails, dErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   de.IDField,
		Domain:   errorDomain,
		Metadata: metadata,
	}); dErr == nil {
		st = withDetails
	}
	return st.Err()
}

// IsDetailError recovers a DetailedError from err, including one that crossed
// a gRPC boundary through ToGRPCError.
func IsDetailError(err error) (*domain.DetailedError, bool) {
	var de *domain.DetailedError
	if errors.As(err, &de) {
		return de, true
	}

	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		code, _ := strconv.Atoi(info.GetMetadata()["code"])
		out := &domain.DetailedError{
			IDField:         info.GetReason(),
			StatusCodeField: code,
			StatusDescField: info.GetMetadata()["status"],
			ReasonField:     info.GetMetadata()["reason"],
			ErrorField:      st.Message(),
		}
		for k, v := range info.GetMetadata() {
			if field, ok := strings.CutPrefix(k, "field."); ok {
				out = out.WithDetail(field, v)
			}
		}
		return out, true
	}
	return nil, false
}

// UnaryErrorInterceptor maps handler errors to status errors.
func UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, ToGRPCError(err)
		}
		return resp, nil
	}
}
