package notifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"p2p-lending-core/internal/domain/reminder"
)

var ErrInvalidRecipient = errors.New("recipient is not an E.164 phone number")

var reE164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// messageCreator is the slice of the Twilio REST API the notifier uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSNotifier delivers reminders as SMS through Twilio.
type SMSNotifier struct {
	api  messageCreator
	from string
	log  *zap.Logger
}

func NewSMSNotifier(accountSID, authToken, from string, log *zap.Logger) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newSMSNotifier(client.Api, from, log)
}

func newSMSNotifier(api messageCreator, from string, log *zap.Logger) *SMSNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &SMSNotifier{api: api, from: from, log: log}
}

func (n *SMSNotifier) Send(ctx context.Context, to reminder.Contact, p reminder.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := strings.TrimSpace(to.Address)
	if !reE164.MatchString(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, addr)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(addr)
	params.SetFrom(n.from)
	params.SetBody(Render(p))

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		n.log.Warn("sms send failed",
			zap.String("loan_id", p.LoanID), zap.String("type", string(p.Type)), zap.Error(err))
		return fmt.Errorf("twilio create message: %w", err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	n.log.Info("sms sent",
		zap.String("loan_id", p.LoanID), zap.String("type", string(p.Type)), zap.String("sid", sid))
	return nil
}
