package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/alisaviation/metricboard/internal/models"
)

// Content is one source's raw payload plus the content-type hint that decides
// which parser it is routed to.
type Content struct {
	Body []byte
	Type string
}

// ContentLoader is the I/O boundary of the core: it turns a source descriptor
// into raw content. Failures are per-source and never fatal to a cycle.
type ContentLoader interface {
	Load(ctx context.Context, src models.Source) (Content, error)
}

type Loader struct {
	client    *resty.Client
	localRoot string
}

func NewLoader(localRoot string) *Loader {
	client := resty.New()
	client.SetHeader("Accept-Encoding", "gzip")
	return &Loader{
		client:    client,
		localRoot: localRoot,
	}
}

func (l *Loader) Load(ctx context.Context, src models.Source) (Content, error) {
	switch src.Kind {
	case models.Remote:
		return l.loadRemote(ctx, src.Name)
	case models.Local:
		return l.loadLocal(src.Name)
	default:
		return Content{}, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func (l *Loader) loadRemote(ctx context.Context, address string) (Content, error) {
	url := address
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}

	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return Content{}, fmt.Errorf("fetch %s: %w", address, err)
	}
	if resp.IsError() {
		return Content{}, fmt.Errorf("fetch %s: server returned status %d", address, resp.StatusCode())
	}

	return Content{
		Body: resp.Body(),
		Type: resp.Header().Get("Content-Type"),
	}, nil
}

func (l *Loader) loadLocal(path string) (Content, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.localRoot, path)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("read %s: %w", path, err)
	}

	contentType := "text/plain"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		contentType = "application/json"
	}
	return Content{Body: body, Type: contentType}, nil
}
