package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/xeipuuv/gojsonschema"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// PacketFileName is the structured packet file searched for in the
// candidate locations.
const PacketFileName = "credentials.packet.json"

// Entry encodings. Only plaintext entries are extractable without a
// decoder; age entries need an identity file.
const (
	EncodingPlaintext = "plaintext"
	EncodingAge       = "age"
)

// packetSchema validates the packet shape before any entry is trusted.
const packetSchema = `{
	"type": "object",
	"required": ["version", "entries"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"entries": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["key", "encoding", "data"],
				"properties": {
					"key": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
					"encoding": {"type": "string"},
					"data": {"type": "string"}
				}
			}
		}
	}
}`

type packetFile struct {
	Version int           `json:"version"`
	Entries []packetEntry `json:"entries"`
}

type packetEntry struct {
	Key      string `json:"key"`
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

// PacketDecoder is the optional external decoder capability for non-plaintext
// packet entries. Decode returns ok=false when the encoding is not one it
// handles; an error means the entry was for this decoder but corrupt.
type PacketDecoder interface {
	Decode(encoding string, data string) (value string, ok bool, err error)
}

// EncodedPacketProvider extracts credentials from a structured packet file.
// With a decoder available it decodes every entry the decoder understands;
// without one it falls back to a best-effort parse extracting only
// plaintext-tagged entries and treating everything else as opaque.
type EncodedPacketProvider struct {
	logger *logging.Logger

	// newDecoder builds the decoder for a fetch context, or nil when the
	// capability is unavailable. Overridable in tests.
	newDecoder func(fc provider.FetchContext) PacketDecoder
}

// NewEncodedPacketProvider creates the packet provider with the age-based
// decoder wired in.
func NewEncodedPacketProvider(logger *logging.Logger) *EncodedPacketProvider {
	return &EncodedPacketProvider{logger: logger, newDecoder: newAgeDecoder}
}

// WithDecoderFactory overrides how the optional decoder is constructed.
func (p *EncodedPacketProvider) WithDecoderFactory(f func(fc provider.FetchContext) PacketDecoder) *EncodedPacketProvider {
	p.newDecoder = f
	return p
}

// Name implements provider.Provider.
func (p *EncodedPacketProvider) Name() string {
	return "encoded-packet"
}

// Source implements provider.Provider.
func (p *EncodedPacketProvider) Source() provider.SourceID {
	return provider.SourceEncodedPacket
}

// Fetch implements provider.Provider.
func (p *EncodedPacketProvider) Fetch(ctx context.Context, fc provider.FetchContext) (provider.Result, error) {
	path := p.findPacket(fc)
	if path == "" {
		return provider.Result{Note: "no credentials packet found"}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return provider.Result{}, fmt.Errorf("read packet %s: %w", path, err)
	}

	pkt, err := parsePacket(data)
	if err != nil {
		return provider.Result{}, fmt.Errorf("packet %s: %w", path, err)
	}

	decoder := p.newDecoder(fc)

	var candidates []provider.Candidate
	skipped := 0
	for _, entry := range pkt.Entries {
		value, ok, err := decodeEntry(entry, decoder)
		if err != nil {
			p.logger.Warn("encoded-packet: entry %s could not be decoded: %v", entry.Key, err)
			skipped++
			continue
		}
		if !ok {
			skipped++
			continue
		}
		candidates = append(candidates, provider.Candidate{
			Key:    entry.Key,
			Value:  value,
			Source: provider.SourceEncodedPacket,
		})
	}

	note := fmt.Sprintf("packet %s: %d entr(ies) extracted", path, len(candidates))
	if skipped > 0 {
		note += fmt.Sprintf(", %d opaque without decoder", skipped)
	}
	return provider.Result{Candidates: candidates, Note: note}, nil
}

func (p *EncodedPacketProvider) findPacket(fc provider.FetchContext) string {
	candidates := fc.Paths.PacketCandidates
	if len(candidates) == 0 {
		candidates = defaultPacketCandidates(fc)
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

func defaultPacketCandidates(fc provider.FetchContext) []string {
	paths := []string{filepath.Join(fc.WorkDir, PacketFileName)}
	if base := fc.Env.Getenv("XDG_CONFIG_HOME"); base != "" {
		paths = append(paths, filepath.Join(base, "credboot", PacketFileName))
	} else if home := fc.Env.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "credboot", PacketFileName))
	}
	return append(paths, filepath.Join("/run/credboot", PacketFileName))
}

func parsePacket(data []byte) (*packetFile, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(packetSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("malformed packet: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("packet failed schema validation:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	var pkt packetFile
	if err := json.Unmarshal(data, &pkt); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	return &pkt, nil
}

// decodeEntry extracts one entry's value. ok=false means the entry stays
// opaque (unknown encoding, or no decoder for it) - not an error.
func decodeEntry(entry packetEntry, decoder PacketDecoder) (string, bool, error) {
	if entry.Encoding == EncodingPlaintext {
		return entry.Data, true, nil
	}
	if decoder == nil {
		return "", false, nil
	}
	return decoder.Decode(entry.Encoding, entry.Data)
}

// ageDecoder decrypts age-encoded packet entries with the identities from
// the user's identity file.
type ageDecoder struct {
	identities []age.Identity
}

// newAgeDecoder returns nil when no identity file is available, which
// downgrades the provider to the plaintext-only fallback parse.
func newAgeDecoder(fc provider.FetchContext) PacketDecoder {
	path := fc.Paths.AgeIdentityFile
	if path == "" {
		if base := fc.Env.Getenv("XDG_CONFIG_HOME"); base != "" {
			path = filepath.Join(base, "credboot", "identity.txt")
		} else if home := fc.Env.Getenv("HOME"); home != "" {
			path = filepath.Join(home, ".config", "credboot", "identity.txt")
		}
	}
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil || len(identities) == 0 {
		return nil
	}
	return &ageDecoder{identities: identities}
}

// Decode implements PacketDecoder for base64-wrapped age ciphertexts.
func (d *ageDecoder) Decode(encoding string, data string) (string, bool, error) {
	if encoding != EncodingAge {
		return "", false, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", false, fmt.Errorf("age entry is not valid base64: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), d.identities...)
	if err != nil {
		return "", false, fmt.Errorf("age decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("age read: %w", err)
	}
	return string(plaintext), true, nil
}
