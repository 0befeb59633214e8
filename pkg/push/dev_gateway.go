package push

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DevGateway logs notifications instead of delivering them. Used in
// development and in tests so the sweep can run without FCM credentials.
type DevGateway struct {
	logger *logrus.Logger

	// Sent records every delivered notification for test inspection.
	Sent []DevMessage
}

// DevMessage is one notification captured by the dev gateway.
type DevMessage struct {
	Token string
	Title string
	Body  string
}

// NewDevGateway creates a gateway that only logs sends.
func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{logger: logger}
}

// Send records the notification and logs it.
func (g *DevGateway) Send(token, title, body string) (string, error) {
	g.Sent = append(g.Sent, DevMessage{Token: token, Title: title, Body: body})
	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{
			"token": token,
			"title": title,
		}).Info("dev push gateway: notification logged, not delivered")
	}
	return fmt.Sprintf("dev-%d", len(g.Sent)), nil
}

// GetName returns the gateway name
func (g *DevGateway) GetName() string {
	return "dev"
}
