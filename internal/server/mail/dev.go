package mail

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/filex"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
)

// DevSender writes each message as an HTML file instead of sending it.
type DevSender struct {
	dir string
	now func() time.Time
	log logging.Logger
}

func NewDevSender(dir string, log logging.Logger) *DevSender {
	return &DevSender{dir: dir, now: time.Now, log: log}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFilename(s string) string {
	s = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		s = "email"
	}
	return s
}

func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	dir, err := filex.EnsureDir(d.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	name := msg.Tag
	if name == "" {
		name = msg.Subject
	}
	path := filepath.Join(dir, d.now().Format("2006_01_02_150405.000000")+"_"+sanitizeFilename(name)+".html")

	if err := filex.WriteFileAtomic(path, []byte(msg.HTML), 0o640); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	d.log.Info(ctx, "email written", "to", msg.To, "subject", msg.Subject, "path", path)
	return nil
}

// LogSender only logs the envelope. Used when no delivery is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.log.Info(ctx, "email not sent, delivery disabled", "to", msg.To, "subject", msg.Subject, "tag", msg.Tag)
	return nil
}
