package scanqr

import (
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
)

type Input struct {
	ImagePath        string `json:"imagePath"`
	OwnAccountNumber string `json:"ownAccountNumber,omitempty"`
}

type Output struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Decoder       Decoder
	Observability *observability.Observability
}
