package mailer

import (
	"context"
	"encoding/json"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/directory"
	"go.uber.org/zap"
)

// chunkSize is the maximum number of destinations one bulk send accepts.
const chunkSize = 50

// fallbackPickupInstructions covers members whose location has no entry in
// the locations sheet.
const fallbackPickupInstructions = "Please contact the farm for pickup instructions."

type confirmationTemplateData struct {
	PickupInstructions string `json:"pickupInstructions"`
}

// Confirmations sends the weekly order-confirmation email to a set of
// members, customized with each member's pickup instructions.
type Confirmations struct {
	sender BulkSender
	logger *zap.Logger
}

// NewConfirmations wires the confirmation sender.
func NewConfirmations(sender BulkSender, logger *zap.Logger) *Confirmations {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Confirmations{sender: sender, logger: logger}
}

// Send emails every user, chunked to the bulk-send limit, and returns the
// addresses that could not be delivered. A chunk whose send call fails
// outright marks all of its addresses failed; partial failure never fails
// the operation as a whole.
func (confirmations *Confirmations) Send(ctx context.Context, users []directory.User, locations []directory.Location) ([]string, error) {
	instructionsByLocation := make(map[string]string, len(locations))
	for _, location := range locations {
		instructionsByLocation[location.Name] = location.PickupInstructions
	}

	defaultData := marshalTemplateData(fallbackPickupInstructions)

	failedSends := []string{}
	for chunkStart := 0; chunkStart < len(users); chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > len(users) {
			chunkEnd = len(users)
		}
		chunk := users[chunkStart:chunkEnd]

		destinations := make([]Destination, 0, len(chunk))
		for _, user := range chunk {
			instructions, ok := instructionsByLocation[user.Location]
			if !ok {
				instructions = fallbackPickupInstructions
			}
			destinations = append(destinations, Destination{
				Email:        user.Email,
				TemplateData: marshalTemplateData(instructions),
			})
		}

		results, err := confirmations.sender.SendBulk(ctx, defaultData, destinations)
		if err != nil {
			confirmations.logger.Error("bulk send failed", zap.Error(err), zap.Int("chunk_size", len(chunk)))
			for _, user := range chunk {
				failedSends = append(failedSends, user.Email)
			}
			continue
		}
		for _, result := range results {
			if !result.OK {
				confirmations.logger.Error("send failed", zap.String("email", result.Email))
				failedSends = append(failedSends, result.Email)
			}
		}
	}
	return failedSends, nil
}

func marshalTemplateData(pickupInstructions string) string {
	raw, err := json.Marshal(confirmationTemplateData{PickupInstructions: pickupInstructions})
	if err != nil {
		return "{}"
	}
	return string(raw)
}
