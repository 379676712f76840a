package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/semquery/semquery/internal/config"
	"github.com/semquery/semquery/internal/dataset"
	"github.com/semquery/semquery/internal/storage"
	s3store "github.com/semquery/semquery/internal/storage/s3"
)

func main() {
	count := flag.Int("count", 2240, "number of customer rows to generate")
	seed := flag.Int64("seed", 42, "random seed for the generator")
	out := flag.String("out", "", "local output path; defaults to SEMQUERY_DATASET_PATH")
	upload := flag.Bool("upload", false, "also publish the file to the object store")
	flag.Parse()

	cfg, err := config.LoadFromEnv("semquery-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if *count <= 0 {
		fmt.Fprintln(os.Stderr, "count must be positive")
		os.Exit(1)
	}

	customers := dataset.NewGenerator(*seed).Customers(*count)
	encoded, err := dataset.EncodeParquet(customers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode parquet: %v\n", err)
		os.Exit(1)
	}

	target := *out
	if target == "" {
		target = cfg.Dataset.Path
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(target, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", target, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d customers to %s (%d bytes)\n", len(customers), target, len(encoded))

	if !*upload {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "object store init: %v\n", err)
		os.Exit(1)
	}

	key, err := storage.BuildDatasetPath(cfg.Dataset.Table, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "build dataset key: %v\n", err)
		os.Exit(1)
	}
	info, err := store.Put(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), storage.PutOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "upload dataset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("published %s (%d bytes)\n", info.Key, info.Size)
}
