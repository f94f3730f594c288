// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"log/slog"

	"github.com/poiesic/docbase/ai"
)

// Provider bundles the OpenAI-compatible embedder and responder behind the
// ai.Provider interface.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	responder *Responder
	logger    *slog.Logger
}

// NewProvider creates a provider from the given options. Both services are
// constructed eagerly so configuration errors surface at startup.
func NewProvider(opts ...ai.ConfigOption) (ai.Provider, error) {
	config := ai.NewConfig(opts...)

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	responder, err := newResponder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		responder: responder,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Responder returns the chat service.
func (p *Provider) Responder() ai.Responder {
	return p.responder
}

// Close releases provider resources. The HTTP-backed clients hold no
// persistent connections, so this is currently a no-op.
func (p *Provider) Close() error {
	p.logger.Debug("provider closed")
	return nil
}
