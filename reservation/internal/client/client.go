package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/pkg/circuit_breaker"
	"github.com/Astemirdum/foyer-service/reservation/config"
	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
)

// directory is the HTTP plumbing shared by the student and room clients.
type directory struct {
	name     string
	log      *zap.Logger
	client   *http.Client
	cb       circuit_breaker.CircuitBreaker
	endpoint string
}

func newDirectory(name string, log *zap.Logger, cfg config.DirectoryHTTPServer) directory {
	return directory{
		name:     name,
		log:      log.Named(name),
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: fmt.Sprintf("http://%s/api/v1", net.JoinHostPort(cfg.Host, cfg.Port)),
		cb: circuit_breaker.New(100, time.Second, 0.2, 2,
			circuit_breaker.WithFailurePredicate(func(err error) bool {
				return errors.Is(err, errs.ErrUnavailable)
			})),
	}
}

func (d directory) CB() circuit_breaker.CircuitBreaker {
	return d.cb
}

// do sends body (if any) as JSON and decodes a 2xx response into out (if any).
func (d directory) do(ctx context.Context, method, path string, body, out any) error {
	err := d.cb.Call(func() error {
		return d.roundTrip(ctx, method, path, body, out)
	})
	if errors.Is(err, circuit_breaker.ErrOpenCB) {
		return errors.Wrapf(errs.ErrUnavailable, "%s: %v", d.name, err)
	}
	return err
}

func (d directory) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		b := bytes.NewBuffer(nil)
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return err
		}
		reqBody = b
	}
	req, err := http.NewRequestWithContext(ctx, method, d.endpoint+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrapf(errs.ErrUnavailable, "%s %s %s: %v", d.name, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(errs.ErrNotFound, "%s %s", d.name, path)
	case resp.StatusCode >= http.StatusInternalServerError:
		d.log.Warn("directory error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return errors.Wrapf(errs.ErrUnavailable, "%s %s: status %d", d.name, path, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(resp.Body) //nolint:errcheck
		return errors.Wrapf(errs.ErrRejected, "%s %s: status %d: %s", d.name, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s %s: decode", d.name, path)
	}
	return nil
}
