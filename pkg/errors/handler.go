package errors

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrorHandler centralizes error display for the CLI
type ErrorHandler struct {
	verbose bool
	mu      sync.Mutex
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{verbose: verbose}
}

// SetVerbose toggles display of error context and stack traces
func (h *ErrorHandler) SetVerbose(verbose bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verbose = verbose
}

// Handle displays an error to the user
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.displayError(appErr)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func (h *ErrorHandler) displayError(err *AppError) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", err.Code, err.Message)

	if err.Cause != nil {
		fmt.Fprintf(os.Stderr, "  Caused by: %v\n", err.Cause)
	}

	for i, suggestion := range err.Suggestions {
		if i == 0 {
			fmt.Fprintln(os.Stderr, "  Suggestions:")
		}
		fmt.Fprintf(os.Stderr, "    %d. %s\n", i+1, suggestion)
	}

	if h.verbose {
		for k, v := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", k, v)
		}
		if err.Stack != "" {
			fmt.Fprintf(os.Stderr, "  Stack:\n%s", err.Stack)
		}
	}
}

// TransactionHandler manages error handling for transactions
type TransactionHandler struct {
	handler      *ErrorHandler
	rollbackFunc func() error
	committed    bool
}

// NewTransactionHandler creates a new transaction handler
func (h *ErrorHandler) NewTransactionHandler(rollbackFunc func() error) *TransactionHandler {
	return &TransactionHandler{
		handler:      h,
		rollbackFunc: rollbackFunc,
	}
}

// Execute executes a function within a transaction with automatic rollback on error
func (th *TransactionHandler) Execute(fn func() error) error {
	err := fn()
	if err != nil {
		if th.rollbackFunc != nil && !th.committed {
			if rollbackErr := th.rollbackFunc(); rollbackErr != nil {
				th.handler.Handle(Wrap(rollbackErr, ErrCodeSQLTransaction, "Failed to rollback transaction"))
			}
		}
		return err
	}

	th.committed = true
	return nil
}

var (
	globalHandler     *ErrorHandler
	globalHandlerOnce sync.Once
)

// GetGlobalErrorHandler returns the global error handler instance
func GetGlobalErrorHandler() *ErrorHandler {
	globalHandlerOnce.Do(func() {
		globalHandler = NewErrorHandler(false)
	})
	return globalHandler
}
