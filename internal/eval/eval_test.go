package eval

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/compute-wer/internal/corpus"
	"github.com/verte-zerg/compute-wer/internal/model"
	"github.com/verte-zerg/compute-wer/internal/stats"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func baseConfig() model.Config {
	return model.Config{RemoveTag: true, MaxWER: stats.Unbounded, Jobs: 2}
}

func fixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	ref := writeFile(t, dir, "test.ref", "utt2 hello world\nutt1 the cat <noise> sat\nutt3 no hypothesis\n")
	hyp := writeFile(t, dir, "test.hyp", "utt1 The Cat sat\nutt2 hello word\n")
	return ref, hyp
}

func TestEvaluateFiles(t *testing.T) {
	ref, hyp := fixture(t)
	dir := filepath.Dir(ref)
	cfg := baseConfig()
	cfg.ClusterFile = writeFile(t, dir, "clusters.txt", "<Greeting> hello world </Greeting>\n")

	res, err := Evaluate(context.Background(), cfg, ref, hyp)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.FileMode {
		t.Fatalf("expected file mode")
	}
	if res.Unmatched != 1 {
		t.Fatalf("expected 1 unmatched utterance, got %d", res.Unmatched)
	}
	if len(res.Utterances) != 2 || res.Utterances[0].ID != "utt2" || res.Utterances[1].ID != "utt1" {
		t.Fatalf("expected reference order, got %+v", res.Utterances)
	}
	if res.Overall != (stats.WER{Equal: 4, Replace: 1}) {
		t.Fatalf("Overall = %+v", res.Overall)
	}
	if res.SER != (stats.SER{Correct: 1, Error: 1}) {
		t.Fatalf("SER = %+v", res.SER)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("expected script cluster and file cluster, got %+v", res.Clusters)
	}
	if res.Clusters[0].Name != "English" || res.Clusters[0].WER != res.Overall {
		t.Fatalf("unexpected script cluster: %+v", res.Clusters[0])
	}
	if res.Clusters[1] != (stats.ClusterWER{Name: "Greeting", WER: stats.WER{Equal: 1, Replace: 1}}) {
		t.Fatalf("unexpected file cluster: %+v", res.Clusters[1])
	}
}

func TestEvaluateSort(t *testing.T) {
	ref, hyp := fixture(t)
	cfg := baseConfig()
	cfg.Sort = true
	res, err := Evaluate(context.Background(), cfg, ref, hyp)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Utterances[0].ID != "utt1" || res.Utterances[1].ID != "utt2" {
		t.Fatalf("expected ascending WER order, got %s, %s", res.Utterances[0].ID, res.Utterances[1].ID)
	}
}

func TestEvaluateMaxWER(t *testing.T) {
	ref, hyp := fixture(t)
	cfg := baseConfig()
	cfg.MaxWER = 40
	res, err := Evaluate(context.Background(), cfg, ref, hyp)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Filtered != 1 || len(res.Utterances) != 1 || res.Utterances[0].ID != "utt1" {
		t.Fatalf("expected utt2 to be filtered, got %+v (filtered %d)", res.Utterances, res.Filtered)
	}
	if res.SER != (stats.SER{Correct: 1}) {
		t.Fatalf("SER = %+v", res.SER)
	}
	if res.Overall != (stats.WER{Equal: 3}) {
		t.Fatalf("Overall = %+v", res.Overall)
	}
}

func TestEvaluateLiteral(t *testing.T) {
	res, err := Evaluate(context.Background(), baseConfig(), "A B C", "A X C")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.FileMode {
		t.Fatalf("expected literal mode")
	}
	if len(res.Utterances) != 1 || res.Utterances[0].ID != "" {
		t.Fatalf("unexpected utterances: %+v", res.Utterances)
	}
	if got := res.Utterances[0].Result.WER.String(); got != "33.33 % N=3 C=2 S=1 D=0 I=0" {
		t.Fatalf("WER = %q", got)
	}
}

func TestEvaluateCharMode(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "test.ref", "u1 <unk>明天A\n")
	hyp := writeFile(t, dir, "test.hyp", "u1 明天\n")
	cfg := baseConfig()
	cfg.Char = true
	res, err := Evaluate(context.Background(), cfg, ref, hyp)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	u := res.Utterances[0]
	if len(u.Ref) != 3 || u.Ref[0] != "明" || u.Ref[2] != "A" {
		t.Fatalf("unexpected ref tokens %q", u.Ref)
	}
	if u.Result.WER != (stats.WER{Equal: 2, Delete: 1}) {
		t.Fatalf("WER = %+v", u.Result.WER)
	}
	names := []string{}
	for _, cl := range res.Clusters {
		names = append(names, cl.Name)
	}
	if len(names) != 2 || names[0] != "Mandarin" || names[1] != "English" {
		t.Fatalf("unexpected clusters %v", names)
	}
}

func TestEvaluateMissingHypothesis(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "test.ref", "u1 a\n")
	_, err := Evaluate(context.Background(), baseConfig(), ref, filepath.Join(dir, "missing.hyp"))
	var pre *PreconditionError
	if !errors.As(err, &pre) || pre.What != "hypothesis file" {
		t.Fatalf("expected hypothesis precondition error, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected error to wrap fs.ErrNotExist")
	}
}

func TestEvaluateMissingIgnoreFile(t *testing.T) {
	cfg := baseConfig()
	cfg.IgnoreFile = filepath.Join(t.TempDir(), "ignore.txt")
	_, err := Evaluate(context.Background(), cfg, "a", "a")
	var pre *PreconditionError
	if !errors.As(err, &pre) || pre.What != "ignore file" {
		t.Fatalf("expected ignore-file precondition error, got %v", err)
	}
}

func TestEvaluateConflict(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "test.ref", "u1 A B C\nu1 A B D\n")
	hyp := writeFile(t, dir, "test.hyp", "u1 A B C\n")
	_, err := Evaluate(context.Background(), baseConfig(), ref, hyp)
	var conflict *corpus.ConflictError
	if !errors.As(err, &conflict) || conflict.Kind != corpus.Reference {
		t.Fatalf("expected reference conflict, got %v", err)
	}
}

func TestEvaluateCanceled(t *testing.T) {
	ref, hyp := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, baseConfig(), ref, hyp)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateInvalidUnicode(t *testing.T) {
	cfg := baseConfig()
	cfg.Unicode = "nfd"
	if _, err := Evaluate(context.Background(), cfg, "a", "a"); err == nil {
		t.Fatalf("expected unsupported unicode form to fail")
	}
}

func TestHistory(t *testing.T) {
	ref, hyp := fixture(t)
	res, err := Evaluate(context.Background(), baseConfig(), ref, hyp)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	run, tokens, clusters := res.History(now)
	if run.RefPath != ref || run.Utterances != 2 || run.Equal != 4 || run.Replace != 1 || !run.CreatedAt.Equal(now) {
		t.Fatalf("unexpected run: %+v", run)
	}
	for _, ts := range tokens {
		if ts.Token == "WORD" {
			t.Fatalf("tokens without occurrences must not be stored: %+v", ts)
		}
	}
	if len(tokens) != 5 {
		t.Fatalf("expected 5 stored tokens, got %+v", tokens)
	}
	if len(clusters) != 1 || clusters[0].Name != "English" {
		t.Fatalf("unexpected clusters: %+v", clusters)
	}
}

func TestEvaluateClusterFileFoldedDuplicates(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "test.ref", "u1 hello world\n")
	hyp := writeFile(t, dir, "test.hyp", "u1 hello word\n")
	cfg := baseConfig()
	cfg.ClusterFile = writeFile(t, dir, "clusters.txt", "<Greet> hello Hello </Greet>\n")

	res, err := Evaluate(context.Background(), cfg, ref, hyp)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Overall != (stats.WER{Equal: 1, Replace: 1}) {
		t.Fatalf("Overall = %+v", res.Overall)
	}
	last := res.Clusters[len(res.Clusters)-1]
	if last != (stats.ClusterWER{Name: "Greet", WER: stats.WER{Equal: 1}}) {
		t.Fatalf("unexpected file cluster: %+v", last)
	}
}

func TestEvaluateClusterOrderHypothesisFirst(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxWER = 80
	res, err := Evaluate(context.Background(), cfg, "a b", "42 b")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.MaxWER != 80 {
		t.Fatalf("MaxWER = %v", res.MaxWER)
	}
	names := []string{}
	for _, cl := range res.Clusters {
		names = append(names, cl.Name)
	}
	if len(names) != 2 || names[0] != "Number" || names[1] != "English" {
		t.Fatalf("unexpected clusters %v", names)
	}
}
