// Package scanqr reads a transfer destination from an account QR code.
package scanqr

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"image"
	"strings"

	"banking-client/internal/common/errors"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/common/validation"
	"banking-client/internal/models"
)

type Service struct {
	config  *Config
	logger  logger.Logger
	decoder Decoder
	obs     *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	decoder := deps.Decoder
	if decoder == nil {
		decoder = ZXingDecoder{}
	}
	return &Service{
		config:  config,
		logger:  logger.OrDefault(deps.Logger),
		decoder: decoder,
		obs:     deps.Observability,
	}
}

// Execute decodes the image and applies the payload rules. Decoding races
// the scan timeout; a decode that finishes late is discarded.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "scan_qr")
	defer func() { done(err) }()

	result, vErr := validation.ValidateStruct(input, GetInputSchema())
	if vErr != nil {
		return nil, errors.NewValidationError("Invalid scan request", vErr.Error())
	}
	if !result.Valid {
		return nil, errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
	}

	img, err := loadImage(input.ImagePath)
	if err != nil {
		return nil, errors.NewQRDecodeFailedError(err)
	}

	text, err := s.decodeWithTimeout(ctx, img)
	if err != nil {
		s.logger.Warn("QR scan failed", map[string]interface{}{
			"image": input.ImagePath,
			"error": err.Error(),
		})
		return nil, err
	}

	payload, err := ParsePayload(text)
	if err != nil {
		return nil, err
	}
	if err := s.checkPayload(payload, input.OwnAccountNumber); err != nil {
		s.logger.Info("QR payload rejected", map[string]interface{}{
			"bankCode": payload.BankCode,
			"reason":   string(errors.Normalize(err).Code),
		})
		return nil, err
	}

	s.logger.Info("QR scanned", map[string]interface{}{"accountNumber": payload.AccountNumber})
	return &Output{BankCode: payload.BankCode, AccountNumber: payload.AccountNumber}, nil
}

// Scan returns the destination account number encoded in the image.
func (s *Service) Scan(ctx context.Context, imagePath, ownAccountNumber string) (string, error) {
	out, err := s.Execute(ctx, &Input{ImagePath: imagePath, OwnAccountNumber: ownAccountNumber})
	if err != nil {
		return "", err
	}
	return out.AccountNumber, nil
}

type decodeResult struct {
	text string
	err  error
}

func (s *Service) decodeWithTimeout(ctx context.Context, img image.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	results := make(chan decodeResult, 1)
	go func() {
		text, err := s.decoder.Decode(ctx, img)
		results <- decodeResult{text: text, err: err}
	}()

	select {
	case r := <-results:
		if r.err != nil {
			return "", errors.NewQRDecodeFailedError(r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errors.NewQRTimeoutError()
		}
		return "", errors.NewQRDecodeFailedError(ctx.Err())
	}
}

// ParsePayload decodes the QR text as {"bankCode", "accountNumber"}.
func ParsePayload(text string) (models.QRPayload, error) {
	var payload models.QRPayload
	raw := []byte(strings.TrimSpace(text))
	if err := validation.QRPayloadSchema.Validate(raw); err != nil {
		return payload, errors.NewMalformedPayloadError("QR", err.Error())
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, errors.NewMalformedPayloadError("QR", err.Error())
	}
	return payload, nil
}

func (s *Service) checkPayload(p models.QRPayload, own string) error {
	if p.BankCode != s.config.BankCode {
		return errors.NewUnsupportedBankError(p.BankCode)
	}
	if p.AccountNumber == "" {
		return errors.NewMissingAccountNumberError()
	}
	if own != "" && p.AccountNumber == own {
		return errors.NewSelfTransferError()
	}
	return nil
}
