package results

// OperationResult carries either a success payload or a domain failure.
// Infrastructure faults travel separately as a plain error so callers can
// tell "the request was rejected" apart from "the store is down".
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult wraps a domain failure.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }

// Unwrap flattens a result whose failure type is error into the usual
// (value, error) pair.
func Unwrap[S any](r OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if r.IsFailure() {
		return zero, *r.Failure
	}
	if r.Success == nil {
		return zero, nil
	}
	return *r.Success, nil
}
