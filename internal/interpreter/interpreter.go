// internal/interpreter/interpreter.go

// Package interpreter turns draws and questions into text through an external
// completion model.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/sirupsen/logrus"
)

// Completer sends one prompt to a completion model and returns its text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// DeltaFunc receives streamed text fragments in order. Returning an error aborts the stream.
type DeltaFunc func(text string) error

// StreamCompleter is a Completer that can stream the answer as it is generated.
// The returned string is the full concatenated text.
type StreamCompleter interface {
	Completer
	CompleteStream(ctx context.Context, p Prompt, onDelta DeltaFunc) (string, error)
}

var errEmptyCompletion = errors.New("model returned an empty completion")

// UnavailableError reports that the interpreter could not produce an answer.
// It matches apperrors.ErrInterpreterUnavailable and unwraps to the upstream error.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", apperrors.ErrInterpreterUnavailable, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == apperrors.ErrInterpreterUnavailable
}

// callbackError marks an error returned by the caller's DeltaFunc so it is passed back
// unchanged rather than reported as an upstream failure.
type callbackError struct {
	err error
}

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

// Oracle builds prompts for each kind of consultation and runs them on a Completer.
type Oracle struct {
	completer Completer
	logger    *logrus.Logger
}

func NewOracle(completer Completer, logger *logrus.Logger) *Oracle {
	return &Oracle{completer: completer, logger: logger}
}

// InterpretTarot interprets a drawn spread. onDelta may be nil.
func (o *Oracle) InterpretTarot(ctx context.Context, req TarotRequest, onDelta DeltaFunc) (string, error) {
	return o.run(ctx, "tarot", TarotPrompt(req), onDelta)
}

// InterpretChat answers an oracle chat question. onDelta may be nil.
func (o *Oracle) InterpretChat(ctx context.Context, req ChatRequest, onDelta DeltaFunc) (string, error) {
	return o.run(ctx, "chat", ChatPrompt(req), onDelta)
}

// AnswerFollowUp answers a follow-up question about a stored reading.
func (o *Oracle) AnswerFollowUp(ctx context.Context, req FollowUpRequest) (string, error) {
	return o.run(ctx, "followup_"+string(req.Kind), FollowUpPrompt(req), nil)
}

func (o *Oracle) run(ctx context.Context, op string, p Prompt, onDelta DeltaFunc) (string, error) {
	start := time.Now()

	var (
		text string
		err  error
	)
	if onDelta == nil {
		text, err = o.completer.Complete(ctx, p)
	} else {
		wrapped := func(s string) error {
			if err := onDelta(s); err != nil {
				return &callbackError{err: err}
			}
			return nil
		}
		if sc, ok := o.completer.(StreamCompleter); ok {
			text, err = sc.CompleteStream(ctx, p, wrapped)
		} else {
			text, err = o.completer.Complete(ctx, p)
			if err == nil && strings.TrimSpace(text) != "" {
				err = wrapped(text)
			}
		}
	}

	var cbErr *callbackError
	if errors.As(err, &cbErr) {
		return "", cbErr.err
	}
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyCompletion
	}
	if err != nil {
		o.logger.WithFields(logrus.Fields{
			"op":       op,
			"duration": time.Since(start),
			"error":    err,
		}).Error("interpreter request failed")
		return "", &UnavailableError{Op: op, Err: err}
	}

	o.logger.WithFields(logrus.Fields{
		"op":         op,
		"duration":   time.Since(start),
		"answer_len": len(text),
	}).Debug("interpreter request completed")
	return text, nil
}
