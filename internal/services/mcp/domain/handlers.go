package domain

import (
	"context"
	"strconv"

	apperrors "github.com/louisbranch/mcptoolbox/internal/platform/errors"
	"github.com/louisbranch/mcptoolbox/internal/random"
)

// NoPick is returned by PickRandom when there is nothing to pick from.
const NoPick = 0

// Echo returns the input text unchanged.
func Echo(text string) string {
	return text
}

// EchoHandler adapts Echo to the tool handler shape.
func EchoHandler() func(context.Context, EchoInput) (string, error) {
	return func(_ context.Context, input EchoInput) (string, error) {
		return Echo(input.EchoText), nil
	}
}

// PickRandom returns a uniformly chosen element of ints, or NoPick when ints
// is empty.
func PickRandom(src random.Source, ints []int) int {
	if len(ints) == 0 {
		return NoPick
	}
	return ints[src.IntN(len(ints))]
}

// SelectRandomHandler adapts PickRandom to the tool handler shape.
func SelectRandomHandler(src random.Source) func(context.Context, SelectRandomInput) (string, error) {
	return func(_ context.Context, input SelectRandomInput) (string, error) {
		return strconv.Itoa(PickRandom(src, input.Ints)), nil
	}
}

// VersionProber reports the version of the runtime the server depends on.
type VersionProber interface {
	Version(ctx context.Context) (string, error)
}

// RuntimeVersionHandler asks prober for the version. Prober failures come
// back as handler failures so they reach the client as error results.
func RuntimeVersionHandler(prober VersionProber) func(context.Context, RuntimeVersionInput) (string, error) {
	return func(ctx context.Context, _ RuntimeVersionInput) (string, error) {
		if prober == nil {
			return "", apperrors.New(apperrors.CodeHandlerFailure, "Unable to retrieve runtime version: no prober configured")
		}
		version, err := prober.Version(ctx)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeHandlerFailure, "Unable to retrieve runtime version", err)
		}
		return version, nil
	}
}
