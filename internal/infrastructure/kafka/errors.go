package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// isAuthError returns true for errors that indicate SASL authentication or
// authorization failures. These are permanent and never retried.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}

	var ke *kerr.Error
	if errors.As(err, &ke) {
		switch ke {
		case kerr.SaslAuthenticationFailed,
			kerr.UnsupportedSaslMechanism,
			kerr.IllegalSaslState,
			kerr.TopicAuthorizationFailed,
			kerr.ClusterAuthorizationFailed,
			kerr.GroupAuthorizationFailed:
			return true
		}
	}

	var eof *kgo.ErrFirstReadEOF
	return errors.As(err, &eof)
}

// kindOf maps a franz-go error onto the domain taxonomy. It returns nil for
// errors that must not be classified as transient or drift.
func kindOf(err error) error {
	if isAuthError(err) || errors.Is(err, context.Canceled) {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, kerr.RequestTimedOut):
		return domain.ErrTimeout
	case errors.Is(err, kgo.ErrClientClosed),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, kerr.BrokerNotAvailable),
		errors.Is(err, kerr.NetworkException):
		return domain.ErrConnection
	case errors.Is(err, kerr.UnknownTopicOrPartition),
		errors.Is(err, kerr.UnknownTopicID),
		errors.Is(err, kerr.GroupIDNotFound):
		return domain.ErrConsistencyDrift
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return domain.ErrTimeout
		}
		return domain.ErrConnection
	}

	var ke *kerr.Error
	if errors.As(err, &ke) && ke.Retriable {
		return domain.ErrTimeout
	}
	return nil
}

// classify wraps err into a *domain.AdapterError carrying its taxonomy kind.
// Unclassifiable errors keep their cause and only gain the operation name.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		return err
	}
	if kind := kindOf(err); kind != nil {
		return domain.NewAdapterError(op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
