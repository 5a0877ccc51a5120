package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/adapters/driven/storage/memory"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/logger"
)

// wordAnnotator splits on whitespace and tags every token NN.
type wordAnnotator struct{}

func (wordAnnotator) Annotate(text string) domain.Annotation {
	tokens := strings.Fields(text)
	tags := make([]domain.POSTag, len(tokens))
	for i, tok := range tokens {
		tags[i] = domain.POSTag{Token: tok, Tag: "NN"}
	}
	return domain.Annotation{Tokens: tokens, POSTags: tags, NamedEntities: []domain.NamedEntity{}}
}

// sharedStore keeps one memory store alive across commands.
type sharedStore struct {
	*memory.DocumentStore
}

func (sharedStore) Close() error { return nil }

// testEnv holds the fakes wired into the command tree.
type testEnv struct {
	config *memory.ConfigStore
	store  *memory.DocumentStore
}

// setupTestServices swaps the construction hooks for in-memory fakes.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		config: memory.NewConfigStore(),
		store:  memory.NewDocumentStore(),
	}
	require.NoError(t, env.config.Set("store.backend", "memory"))
	require.NoError(t, env.config.Set("log.dir", t.TempDir()))

	origConfig, origStore, origAnnotator := openConfig, openStore, loadAnnotator
	openConfig = func(string) (driven.ConfigStore, error) { return env.config, nil }
	openStore = func(context.Context, domain.StoreSettings) (driven.DocumentStore, error) {
		return sharedStore{env.store}, nil
	}
	loadAnnotator = func() (driven.Annotator, error) { return wordAnnotator{}, nil }

	t.Cleanup(func() {
		openConfig, openStore, loadAnnotator = origConfig, origStore, origAnnotator
		settingsService = nil
		searchLimit, searchJSON = 10, false
		ingestNormalizeNames, ingestWorkers, ingestSkipUnchanged = false, 0, false
		annotateText, annotateFile, annotateFormat = "", "", formatJSON
		annotateOutputDir, annotateOutput = "outputs", "output"
		resetYes = false
		watchNoInitial = false
		timeout = 0
		clearChanged(rootCmd)
		logger.SetOutput(os.Stderr)
	})
	return env
}

// clearChanged forgets which flags were set, so mutually exclusive
// flags from one execution do not leak into the next.
func clearChanged(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		clearChanged(sub)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
