// Command schemata-report aggregates run summaries from a local report
// directory or an S3 prefix into one JSON index and a score table.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"schemata/internal/config"
	"schemata/internal/report"
	"schemata/internal/uploader"
	"schemata/internal/util"
)

// FileContent holds inlined run file content.
type FileContent struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// RunEntry is one run in the index.
type RunEntry struct {
	report.Summary
	Dir        string                 `json:"dir"`
	SummaryURL string                 `json:"summary_url"`
	ArchiveURL string                 `json:"archive_url"`
	Files      map[string]FileContent `json:"files"`
}

// Index is the JSON payload written to runs.json.
type Index struct {
	GeneratedAt string     `json:"generated_at"`
	Source      string     `json:"source"`
	Runs        []RunEntry `json:"runs"`
}

type options struct {
	input                 string
	output                string
	configPath            string
	maxBytes              int
	artifactPublicBaseURL string
	publish               config.S3Config
	publishPublicBaseURL  string
}

// runFiles are inlined into the index when present.
var runFiles = []string{"schema.sql", "inserts.sql", "mutants.sql"}

const indexFile = "runs.json"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "schemata-report",
		Short:        "Aggregate schemata run summaries",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "reports", "input directory or s3://bucket/prefix")
	f.StringVarP(&opts.output, "output", "o", "web/public", "output directory for runs.json")
	f.StringVarP(&opts.configPath, "config", "c", "", "config file with storage.s3 settings for s3 input")
	f.IntVar(&opts.maxBytes, "max-bytes", 64*1024, "max bytes to inline per run file")
	f.StringVar(&opts.artifactPublicBaseURL, "artifact-public-base-url", "", "public HTTP(S) base URL used to derive links from s3 upload locations")
	f.StringVar(&opts.publish.Endpoint, "publish-endpoint", "", "S3-compatible endpoint for publishing runs.json")
	f.StringVar(&opts.publish.Region, "publish-region", "auto", "region for the publish endpoint")
	f.StringVar(&opts.publish.Bucket, "publish-bucket", "", "target bucket for runs.json")
	f.StringVar(&opts.publish.Prefix, "publish-prefix", "", "target prefix for runs.json")
	f.StringVar(&opts.publish.AccessKeyID, "publish-access-key-id", "", "access key for publishing")
	f.StringVar(&opts.publish.SecretAccessKey, "publish-secret-access-key", "", "secret key for publishing")
	f.StringVar(&opts.publish.SessionToken, "publish-session-token", "", "session token for publishing")
	f.BoolVar(&opts.publish.UsePathStyle, "publish-use-path-style", true, "use path-style addressing for the publish endpoint")
	f.StringVar(&opts.publishPublicBaseURL, "publish-public-base-url", "", "public base URL of the published index")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	var (
		runs []RunEntry
		err  error
	)
	if strings.HasPrefix(opts.input, "s3://") {
		cfg, loadErr := config.Load(opts.configPath)
		if loadErr != nil {
			return errors.Wrap(loadErr, "load config")
		}
		if !cfg.Storage.S3.Enabled {
			return errors.New("s3 input requested but storage.s3.enabled is false")
		}
		bucket, prefix, parseErr := parseS3URI(opts.input)
		if parseErr != nil {
			return parseErr
		}
		runs, err = loadS3Runs(ctx, cfg.Storage.S3, bucket, prefix, opts)
	} else {
		runs, err = loadLocalRuns(opts.input, opts)
	}
	if err != nil {
		return errors.Wrap(err, "load runs")
	}
	sortRuns(runs)

	index := Index{GeneratedAt: time.Now().UTC().Format(time.RFC3339), Source: opts.input, Runs: runs}
	if err := writeIndex(opts.output, index); err != nil {
		return errors.Wrap(err, "write index")
	}
	summaries := make([]report.Summary, len(runs))
	for i, r := range runs {
		summaries[i] = r.Summary
	}
	report.WriteRunsTable(out, summaries)

	opts.publish.Enabled = strings.TrimSpace(opts.publish.Bucket) != ""
	url, err := publishIndex(ctx, opts.publish, opts.publishPublicBaseURL, opts.output)
	if err != nil {
		return errors.Wrap(err, "publish index")
	}
	if url != "" {
		fmt.Fprintf(out, "published index to %s\n", url)
	}
	fmt.Fprintf(out, "%d runs written to %s\n", len(runs), filepath.Join(opts.output, indexFile))
	return nil
}

// sortRuns puts the newest run first. Run IDs are UUIDv7, so they break
// timestamp ties in creation order.
func sortRuns(runs []RunEntry) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Timestamp != runs[j].Timestamp {
			return runs[i].Timestamp > runs[j].Timestamp
		}
		return runs[i].RunID > runs[j].RunID
	})
}

func loadLocalRuns(root string, opts *options) ([]RunEntry, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	runs := make([]RunEntry, 0, len(dirs))
	for _, entry := range dirs {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		summary, err := report.ReadSummary(filepath.Join(dir, report.SummaryFile))
		if err != nil {
			if !os.IsNotExist(errors.Cause(err)) {
				util.Warnf("skip run %s: %v", dir, err)
			}
			continue
		}
		runs = append(runs, newRunEntry(summary, dir, localRunFiles(dir, summary.ArchiveName, opts.maxBytes), opts.artifactPublicBaseURL))
	}
	return runs, nil
}

// localRunFiles reads the run files of dir. Files missing from the directory
// are taken from the run archive, if there is one.
func localRunFiles(dir, archiveName string, maxBytes int) map[string]FileContent {
	files := map[string]FileContent{}
	var archived map[string][]byte
	for _, name := range runFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil && archiveName != "" {
			if archived == nil {
				archived = readArchived(filepath.Join(dir, archiveName))
			}
			if raw, ok := archived[name]; ok {
				content, truncated, _ := readLimited(bytes.NewReader(raw), maxBytes)
				files[name] = FileContent{Name: name, Content: content, Truncated: truncated}
				continue
			}
		}
		files[name] = readFileContent(path, maxBytes)
	}
	return files
}

func readArchived(path string) map[string][]byte {
	entries, err := report.ReadArchive(path)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			util.Warnf("read archive %s: %v", path, err)
		}
		return map[string][]byte{}
	}
	return entries
}

func newRunEntry(summary report.Summary, dir string, files map[string]FileContent, publicBase string) RunEntry {
	if strings.TrimSpace(summary.RunID) == "" {
		summary.RunID = filepath.Base(dir)
	}
	return RunEntry{
		Summary:    summary,
		Dir:        dir,
		SummaryURL: deriveUploadObjectURL(summary.UploadLocation, report.SummaryFile, publicBase),
		ArchiveURL: deriveUploadObjectURL(summary.UploadLocation, summary.ArchiveName, publicBase),
		Files:      files,
	}
}

func readFileContent(path string, maxBytes int) FileContent {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		return FileContent{Name: name}
	}
	defer util.CloseWithErr(f, "report input")
	content, truncated, err := readLimited(f, maxBytes)
	if err != nil {
		return FileContent{Name: name}
	}
	return FileContent{Name: name, Content: content, Truncated: truncated}
}

func readLimited(r io.Reader, maxBytes int) (string, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(maxBytes)+1))
	if err != nil {
		return "", false, err
	}
	truncated := len(data) > maxBytes
	if truncated {
		data = data[:maxBytes]
	}
	return string(data), truncated, nil
}

func writeIndex(output string, index Index) error {
	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(output, indexFile))
	if err != nil {
		return err
	}
	defer util.CloseWithErr(f, "report output")
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(index)
}

func parseS3URI(input string) (bucket string, prefix string, err error) {
	trimmed := strings.TrimPrefix(input, "s3://")
	if trimmed == "" {
		return "", "", errors.New("missing s3 bucket")
	}
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.TrimPrefix(parts[1], "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
	}
	return bucket, prefix, nil
}

func loadS3Runs(ctx context.Context, cfg config.S3Config, bucket, prefix string, opts *options) ([]RunEntry, error) {
	client, err := uploader.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	keys, err := listSummaryKeys(ctx, client, bucket, prefix)
	if err != nil {
		return nil, err
	}
	runs := make([]RunEntry, 0, len(keys))
	for _, key := range keys {
		dir := strings.TrimSuffix(key, "/"+report.SummaryFile)
		raw, _, err := readObject(ctx, client, bucket, key, 1<<24)
		if err != nil {
			util.Warnf("skip run s3://%s/%s: %v", bucket, dir, err)
			continue
		}
		var summary report.Summary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			util.Warnf("skip run s3://%s/%s: %v", bucket, dir, err)
			continue
		}
		files := map[string]FileContent{}
		for _, name := range runFiles {
			content, truncated, err := readObject(ctx, client, bucket, dir+"/"+name, opts.maxBytes)
			if err != nil {
				files[name] = FileContent{Name: name}
				continue
			}
			files[name] = FileContent{Name: name, Content: content, Truncated: truncated}
		}
		runs = append(runs, newRunEntry(summary, "s3://"+bucket+"/"+dir, files, opts.artifactPublicBaseURL))
	}
	return runs, nil
}

func listSummaryKeys(ctx context.Context, client *s3.Client, bucket, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); strings.HasSuffix(key, "/"+report.SummaryFile) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func readObject(ctx context.Context, client *s3.Client, bucket, key string, maxBytes int) (string, bool, error) {
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", false, err
	}
	defer util.CloseWithErr(resp.Body, "s3 response body")
	return readLimited(resp.Body, maxBytes)
}

func publishIndex(ctx context.Context, cfg config.S3Config, publicBase, output string) (string, error) {
	if !cfg.Enabled {
		return "", nil
	}
	client, err := uploader.NewS3Client(ctx, cfg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(output, indexFile))
	if err != nil {
		return "", err
	}
	key := objectKey(cfg.Prefix, indexFile)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(publicBase) != "" {
		return objectURL(publicBase, key), nil
	}
	return fmt.Sprintf("s3://%s/%s", cfg.Bucket, key), nil
}

// deriveUploadObjectURL maps a file of an uploaded run to a public URL. HTTP
// locations are used as is; s3:// locations need a public base.
func deriveUploadObjectURL(uploadLocation, name, publicBase string) string {
	name = strings.TrimSpace(name)
	location := strings.TrimSpace(uploadLocation)
	if name == "" || location == "" {
		return ""
	}
	if isHTTPURL(location) {
		return objectURL(location, name)
	}
	if !strings.HasPrefix(strings.ToLower(location), "s3://") || strings.TrimSpace(publicBase) == "" {
		return ""
	}
	_, prefix, err := parseS3URI(location)
	if err != nil {
		return ""
	}
	return objectURL(publicBase, objectKey(prefix, name))
}

func isHTTPURL(url string) bool {
	lower := strings.ToLower(strings.TrimSpace(url))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func objectURL(base, name string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if base == "" || name == "" {
		return ""
	}
	return base + "/" + name
}

func objectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
