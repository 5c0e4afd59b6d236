package abiloader

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/pkg/metrics"
	"storage_dapp/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Loader fetches the contract ABI from a URL or a file and falls back to the embedded one on any failure.
type Loader struct {
	client  *fasthttp.Client
	source  string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewLoader creates a Loader. source is an http(s) URL or a filesystem path.
func NewLoader(source string, timeout time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		client:  &fasthttp.Client{},
		source:  strings.TrimSpace(source),
		timeout: timeout,
		logger:  logger.Named("ABILoader"),
		now:     time.Now,
	}
}

// Load never fails: a fetch or validation error yields the fallback descriptor.
func (l *Loader) Load(ctx context.Context) *entity.InterfaceDescriptor {
	raw, err := l.read(ctx)
	if err == nil {
		var desc *entity.InterfaceDescriptor
		desc, err = Parse(raw, entity.ABISourceRemote)
		if err == nil {
			l.logger.Info("ABI: loaded from source",
				zap.String("source", l.source),
				zap.Int("entries", len(desc.Parsed.Methods)+len(desc.Parsed.Events)))
			metrics.ABILoads.WithLabelValues(string(entity.ABISourceRemote)).Inc()
			return desc
		}
	}

	l.logger.Info("ABI: using fallback", zap.String("source", l.source), zap.String("reason", err.Error()))
	metrics.ABILoads.WithLabelValues(string(entity.ABISourceFallback)).Inc()
	return Fallback()
}

// Parse validates that raw is a JSON array and parses it as an ABI.
func Parse(raw []byte, source entity.ABISource) (*entity.InterfaceDescriptor, error) {
	if err := utils.ValidateJSONArray(raw); err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &entity.InterfaceDescriptor{Raw: append([]byte(nil), raw...), Parsed: parsed, Source: source}, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if l.source == "" {
		return nil, fmt.Errorf("no ABI source configured")
	}
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		return l.fetch(ctx)
	}
	return utils.ReadJSONArray(strings.TrimPrefix(l.source, "file://"))
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	requestURL, err := l.cacheBusted()
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Requesting ABI", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(l.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := l.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, fmt.Errorf("abi.json fetch %d", resp.StatusCode())
	}
	return append([]byte(nil), resp.Body()...), nil
}

// cacheBusted appends v=<unix millis> so intermediaries never serve a stale ABI.
func (l *Loader) cacheBusted() (string, error) {
	u, err := url.Parse(l.source)
	if err != nil {
		return "", fmt.Errorf("invalid ABI URL %q: %w", l.source, err)
	}
	q := u.Query()
	q.Set("v", strconv.FormatInt(l.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
