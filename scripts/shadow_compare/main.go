// Command shadow_compare replays read-only requests against the legacy
// Express backend and the Go service and reports payload differences.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"
)

type target struct {
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Role     string   `json:"role"`
	Critical bool     `json:"critical"`
	Ignore   []string `json:"ignore"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	DiffKeys       []string
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func (c comparison) matches() bool {
	return c.Error == nil && c.StatusMatch && len(c.DiffKeys) == 0
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:5000", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5001", "Legacy API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	// Both backends verify the same HS256 secret, so one token per role works for both.
	tokens := map[string]string{
		"student":  os.Getenv("SHADOW_STUDENT_TOKEN"),
		"educator": os.Getenv("SHADOW_EDUCATOR_TOKEN"),
		"admin":    os.Getenv("SHADOW_ADMIN_TOKEN"),
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, goBase, legacyBase, t, tokens[t.Role])
		if !comp.matches() {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, tgt target, token string) comparison {
	comp := comparison{Target: tgt}
	goStatus, goBody, goDur, goErr := fetch(client, goBase, tgt, token)
	legacyStatus, legacyBody, legacyDur, legacyErr := fetch(client, legacyBase, tgt, token)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = goStatus == legacyStatus

	diff, err := diffBodies(goBody, legacyBody, tgt.Ignore)
	if err != nil {
		comp.Error = err
		return comp
	}
	comp.DiffKeys = diff
	return comp
}

func fetch(client *http.Client, base string, tgt target, token string) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// diffBodies returns the top-level keys (or "$" for the whole document) whose
// values differ once ignored keys are dropped at every depth.
func diffBodies(a, b []byte, ignore []string) ([]string, error) {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return nil, fmt.Errorf("decode go body: %w", err)
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return nil, fmt.Errorf("decode legacy body: %w", err)
	}

	skip := make(map[string]struct{}, len(ignore))
	for _, key := range ignore {
		skip[key] = struct{}{}
	}
	aj = normalize(aj, skip)
	bj = normalize(bj, skip)

	am, aok := aj.(map[string]interface{})
	bm, bok := bj.(map[string]interface{})
	if !aok || !bok {
		if reflect.DeepEqual(aj, bj) {
			return nil, nil
		}
		return []string{"$"}, nil
	}

	keys := make(map[string]struct{})
	for k := range am {
		keys[k] = struct{}{}
	}
	for k := range bm {
		keys[k] = struct{}{}
	}
	var diff []string
	for k := range keys {
		if !reflect.DeepEqual(am[k], bm[k]) {
			diff = append(diff, k)
		}
	}
	sort.Strings(diff)
	return diff, nil
}

func normalize(v interface{}, skip map[string]struct{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if _, drop := skip[k]; drop {
				continue
			}
			out[k] = normalize(inner, skip)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = normalize(inner, skip)
		}
		return out
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.matches() {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s (%s)\n", status, res.Target.Method, res.Target.Path, res.Target.Role)
		fmt.Printf("  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Printf("  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status match: %t | Critical: %t\n", res.StatusMatch, res.Target.Critical)
		if len(res.DiffKeys) > 0 {
			fmt.Printf("  Differing fields: %s\n", strings.Join(res.DiffKeys, ", "))
		}
	}
}
