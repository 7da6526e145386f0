package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/domain/models"
	client "github.com/mamadbah2/inventario/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// MessagingService sends operator notifications.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaWhatsAppService{client: client, logger: logger}
}

// SendOutbound delivers req.Message to req.To.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if req.To == "" || req.Message == "" {
		return errors.New("outbound message needs a recipient and a body")
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := s.client.SendText(ctx, req.To, req.Message, req.PreviewURL)
	if err != nil {
		return err
	}

	s.logger.Info("outbound message sent", zap.String("to", req.To), zap.String("message_id", id))
	return nil
}
