package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

func writePacket(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, PacketFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func packetContext(path string) provider.FetchContext {
	return provider.FetchContext{
		Env:   provider.MapEnviron{},
		Paths: provider.Paths{PacketCandidates: []string{path}},
	}
}

func TestEncodedPacketContract(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "absent.packet.json")
	provider.RunProviderContract(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return NewEncodedPacketProvider(testLogger())
		},
		InapplicableContext: &provider.FetchContext{
			Env:   provider.MapEnviron{},
			Paths: provider.Paths{PacketCandidates: []string{missing}},
		},
	})
}

func TestEncodedPacketPlaintextFallback(t *testing.T) {
	t.Parallel()

	path := writePacket(t, t.TempDir(), `{
		"version": 1,
		"entries": [
			{"key": "OPENAI_API_KEY", "encoding": "plaintext", "data": "sk-abc"},
			{"key": "DB_PASSWORD", "encoding": "age", "data": "b3BhcXVl"},
			{"key": "OTHER", "encoding": "pgp", "data": "opaque"}
		]
	}`)

	// No identity file anywhere: decoder capability unavailable, only the
	// plaintext entry is extractable.
	p := NewEncodedPacketProvider(testLogger()).WithDecoderFactory(func(provider.FetchContext) PacketDecoder { return nil })

	res, err := p.Fetch(context.Background(), packetContext(path))
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "OPENAI_API_KEY", res.Candidates[0].Key)
	assert.Equal(t, "sk-abc", res.Candidates[0].Value)
	assert.Equal(t, provider.SourceEncodedPacket, res.Candidates[0].Source)
	assert.Contains(t, res.Note, "2 opaque without decoder")
}

func TestEncodedPacketAgeRoundTrip(t *testing.T) {
	t.Parallel()

	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	dir := t.TempDir()
	identityFile := filepath.Join(dir, "identity.txt")
	require.NoError(t, os.WriteFile(identityFile, []byte(identity.String()+"\n"), 0o600))

	var ciphertext bytes.Buffer
	w, err := age.Encrypt(&ciphertext, identity.Recipient())
	require.NoError(t, err)
	_, err = w.Write([]byte("hunter2"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := writePacket(t, dir, fmt.Sprintf(`{
		"version": 1,
		"entries": [
			{"key": "DB_PASSWORD", "encoding": "age", "data": %q},
			{"key": "PLAIN", "encoding": "plaintext", "data": "v"}
		]
	}`, base64.StdEncoding.EncodeToString(ciphertext.Bytes())))

	p := NewEncodedPacketProvider(testLogger())
	fc := packetContext(path)
	fc.Paths.AgeIdentityFile = identityFile

	res, err := p.Fetch(context.Background(), fc)
	require.NoError(t, err)

	got := map[string]string{}
	for _, c := range res.Candidates {
		got[c.Key] = c.Value
	}
	assert.Equal(t, map[string]string{"DB_PASSWORD": "hunter2", "PLAIN": "v"}, got)
}

func TestEncodedPacketMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "not even json"},
		{"missing entries", `{"version": 1}`},
		{"bad key shape", `{"version": 1, "entries": [{"key": "9bad", "encoding": "plaintext", "data": "v"}]}`},
		{"entry missing data", `{"version": 1, "entries": [{"key": "OK", "encoding": "plaintext"}]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writePacket(t, t.TempDir(), tt.content)
			p := NewEncodedPacketProvider(testLogger())

			_, err := p.Fetch(context.Background(), packetContext(path))
			assert.Error(t, err, "malformed packets are a per-provider error the engine downgrades to a warning")
		})
	}
}

func TestEncodedPacketCorruptAgeEntrySkipped(t *testing.T) {
	t.Parallel()

	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	dir := t.TempDir()
	identityFile := filepath.Join(dir, "identity.txt")
	require.NoError(t, os.WriteFile(identityFile, []byte(identity.String()+"\n"), 0o600))

	path := writePacket(t, dir, `{
		"version": 1,
		"entries": [
			{"key": "BROKEN", "encoding": "age", "data": "!!! not base64 !!!"},
			{"key": "PLAIN", "encoding": "plaintext", "data": "v"}
		]
	}`)

	p := NewEncodedPacketProvider(testLogger())
	fc := packetContext(path)
	fc.Paths.AgeIdentityFile = identityFile

	res, err := p.Fetch(context.Background(), fc)
	require.NoError(t, err, "one corrupt entry does not fail the whole packet")
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PLAIN", res.Candidates[0].Key)
}

func TestEncodedPacketSearchOrder(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()
	first := writePacket(t, dirA, `{"version": 1, "entries": [{"key": "FROM", "encoding": "plaintext", "data": "first"}]}`)
	second := writePacket(t, dirB, `{"version": 1, "entries": [{"key": "FROM", "encoding": "plaintext", "data": "second"}]}`)

	p := NewEncodedPacketProvider(testLogger())
	fc := provider.FetchContext{
		Env:   provider.MapEnviron{},
		Paths: provider.Paths{PacketCandidates: []string{filepath.Join(dirA, "missing"), first, second}},
	}

	res, err := p.Fetch(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "first", res.Candidates[0].Value, "the first existing candidate path wins")
}
