package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"resty.dev/v3"
)

// Shared sections every service pulls from the config service.
const (
	SectionGlobalURL = "GLOBAL_URL"
	SectionGlobalDB  = "GLOBAL_DB"
)

// ErrRemoteConfig is returned when the config service rejects a request or
// answers with an unexpected body.
var ErrRemoteConfig = errors.New("config service error")

// RemoteTimeout bounds each config service request.
const RemoteTimeout = 10 * time.Second

type remoteRequest struct {
	Name string `json:"name"`
}

type remoteResponse struct {
	Status int            `json:"status"`
	Config map[string]any `json:"config"`
}

// FetchRemote pulls the GLOBAL_URL, GLOBAL_DB and name sections from the
// config service at apiMain.
//
// The sections are returned in merge order, lowest precedence first: the
// service's own section, then GLOBAL_DB, then GLOBAL_URL. An empty name skips
// the service section.
func FetchRemote(ctx context.Context, apiMain, name string) ([]map[string]any, error) {
	client := resty.New().SetTimeout(RemoteTimeout)
	defer client.Close()

	endpoint := apiMain
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	endpoint += "api/get_config"

	urls, err := fetchSection(ctx, client, endpoint, SectionGlobalURL)
	if err != nil {
		return nil, err
	}
	db, err := fetchSection(ctx, client, endpoint, SectionGlobalDB)
	if err != nil {
		return nil, err
	}

	sections := make([]map[string]any, 0, 3)
	if name == "" {
		logger.Warnf("NAME is not set; skipping service config section")
	} else {
		own, err := fetchSection(ctx, client, endpoint, name)
		if err != nil {
			return nil, err
		}
		sections = append(sections, own)
	}
	return append(sections, db, urls), nil
}

func fetchSection(ctx context.Context, client *resty.Client, endpoint, name string) (map[string]any, error) {
	var out remoteResponse
	res, err := client.R().
		SetContext(ctx).
		SetBody(remoteRequest{Name: name}).
		SetResult(&out).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch config %s: %w", name, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: fetch config %s: HTTP %d", ErrRemoteConfig, name, res.StatusCode())
	}
	if out.Status != 1 {
		return nil, fmt.Errorf("%w: fetch config %s: status %d", ErrRemoteConfig, name, out.Status)
	}
	if out.Config == nil {
		return nil, fmt.Errorf("%w: fetch config %s: no config object", ErrRemoteConfig, name)
	}
	logger.Debugf("Loaded config section %s (%d keys)", name, len(out.Config))
	return out.Config, nil
}
