package console

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/ui"
)

const qrFormField = "file"

var qrExtensions = map[string]struct{}{".png": {}, ".jpg": {}, ".jpeg": {}}

// UploadAccountQR stores a PNG or JPEG QR image for an account.
func (s *Store) UploadAccountQR(ctx context.Context, accountID int64, filename string, image io.Reader) error {
	const op = "accounts.uploadQR"
	if _, ok := qrExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		s.ui.ShowToast("QR code must be a .png, .jpg or .jpeg image", ui.SeverityError)
		return errors.Mutation(op, "QR code must be a .png, .jpg or .jpeg image", errors.ErrUnsupported)
	}
	err := s.mutate(ctx, op, "QR code upload failed", "QR code uploaded", func(ctx context.Context) error {
		return s.api.Upload(ctx, apiclient.Path(apiclient.EndpointAccountUploadQR, accountID), qrFormField, filepath.Base(filename), image, nil)
	})
	if err != nil {
		return err
	}
	s.accounts.Mutate(accountID, func(a *entities.Account) { a.HasQRCode = true })
	return nil
}

// DownloadAccountQR returns an account's QR image and its content type.
func (s *Store) DownloadAccountQR(ctx context.Context, accountID int64) ([]byte, string, error) {
	data, contentType, err := s.api.Download(ctx, apiclient.Path(apiclient.EndpointAccountQR, accountID))
	if err != nil {
		msg := apiclient.MessageOr(err, "Loading QR code failed")
		s.ui.ShowToast(msg, ui.SeverityError)
		return nil, "", errors.Fetch("accounts.downloadQR", msg, err)
	}
	return data, contentType, nil
}
