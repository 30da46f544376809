package core

import (
	"context"
	"io"
)

// ObjectClient stores user uploads in object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	// DeleteFile removes the object behind a URL returned by UploadFile.
	DeleteFile(ctx context.Context, url string) error
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
