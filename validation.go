package metaprompt

import "fmt"

// ValidateRequest performs pre-flight checks on a generation request before
// it is handed to a provider. It returns a *ValidationError wrapping
// ErrInvalidRequest on the first failed check. Provider APIs remain the
// source of truth; this catches the mistakes that would otherwise surface as
// opaque HTTP 400s mid-run.
func ValidateRequest(req *GenerateRequest) error {
	if req == nil {
		return &ValidationError{
			Field:  "request",
			Reason: "request must not be nil",
			Err:    ErrInvalidRequest,
		}
	}

	if req.Model == "" {
		return &ValidationError{
			Field:  "model",
			Reason: "model must not be empty",
			Err:    ErrInvalidRequest,
		}
	}

	if len(req.Messages) == 0 {
		return &ValidationError{
			Field:  "messages",
			Reason: "at least one message is required",
			Err:    ErrInvalidRequest,
		}
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{
				Field:  fmt.Sprintf("messages[%d].role", i),
				Value:  msg.Role,
				Reason: "role must be system, user, or assistant",
				Err:    ErrInvalidRequest,
			}
		}
	}

	if err := ValidateRequestParams(req.Params); err != nil {
		return &ValidationError{
			Field:  "params",
			Reason: err.Error(),
			Err:    ErrInvalidRequest,
		}
	}

	return nil
}
