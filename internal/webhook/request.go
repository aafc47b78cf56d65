package webhook

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"voice-lead-agent/internal/domain"
	"voice-lead-agent/internal/usecase"
)

// ApologyText is spoken to the caller whenever a turn cannot be answered.
const ApologyText = "I apologize, I'm having trouble right now. Please try again later."

// Request is the body the voice platform posts for every spoken turn.
// Pointer fields distinguish an absent field from an empty one.
type Request struct {
	Transcript          *string `json:"transcript" validate:"required"`
	ConversationHistory []Turn  `json:"conversation_history" validate:"required,dive"`
}

type Turn struct {
	Role    *string `json:"role" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

// Response is returned for every request, successful or not.
type Response struct {
	Response string `json:"response"`
	EndCall  bool   `json:"end_call"`
}

// Apology is the uniform failure payload. It asks the platform to end the call.
func Apology() Response {
	return Response{Response: ApologyText, EndCall: true}
}

var validate = validator.New()

// Decode parses and validates a webhook body. Both fields must be present;
// conversation_history may be empty. Failures are usecase errors with code
// INVALID_INPUT.
func Decode(body []byte) (usecase.ReplyInput, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return usecase.ReplyInput{}, usecase.NewError(usecase.ErrorInvalidInput, "malformed_json", err)
	}
	if err := validate.Struct(req); err != nil {
		return usecase.ReplyInput{}, usecase.NewError(usecase.ErrorInvalidInput, missingFieldReason(err), err)
	}

	history := make([]domain.Turn, 0, len(req.ConversationHistory))
	for _, t := range req.ConversationHistory {
		history = append(history, domain.Turn{Role: *t.Role, Content: *t.Content})
	}
	return usecase.ReplyInput{
		Transcript: *req.Transcript,
		History:    history,
	}, nil
}

func missingFieldReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid_request"
	}
	switch verrs[0].StructField() {
	case "Transcript":
		return "missing_transcript"
	case "ConversationHistory":
		return "missing_conversation_history"
	case "Role":
		return "missing_turn_role"
	case "Content":
		return "missing_turn_content"
	default:
		return "invalid_request"
	}
}
