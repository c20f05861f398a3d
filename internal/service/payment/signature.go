package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid signature")

// checksumBase serializes the payload minus its checksum field, in the
// provider's canonical field order.
func checksumBase(p WebhookPayload) ([]byte, error) {
	base := struct {
		MerchantID            string `json:"merchantId"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		Status                string `json:"status"`
		ResponseCode          string `json:"responseCode"`
		ResponseMessage       string `json:"responseMessage"`
	}{
		MerchantID:            p.MerchantID,
		MerchantTransactionID: p.MerchantTransactionID,
		TransactionID:         p.TransactionID,
		Amount:                p.Amount,
		Status:                p.Status,
		ResponseCode:          p.ResponseCode,
		ResponseMessage:       p.ResponseMessage,
	}
	return json.Marshal(base)
}

// ComputeChecksum implements the provider scheme:
// hex(sha256(JSON(payload minus checksum) + saltKey)) + "###" + saltIndex.
func ComputeChecksum(p WebhookPayload, saltKey, saltIndex string) (string, error) {
	body, err := checksumBase(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append(body, []byte(saltKey)...))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex, nil
}

// VerifyChecksum fails closed: any verification problem rejects the payload.
func VerifyChecksum(p WebhookPayload, saltKey, saltIndex string) error {
	want, err := ComputeChecksum(p, saltKey, saltIndex)
	if err != nil {
		return ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(p.Checksum)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
