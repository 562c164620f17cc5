package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tryonhub/internal/avatar"
	"tryonhub/internal/blobstore"
	"tryonhub/internal/classify"
	"tryonhub/internal/tryon"
	"tryonhub/pkg/database"
	"tryonhub/pkg/models"
	"tryonhub/pkg/storage"
	"tryonhub/pkg/utils"
)

func main() {
	avatarPath := flag.String("avatar", "", "avatar image file (optional if one is already stored)")
	garmentRef := flag.String("garment", "", "garment image: file path, URL or data URI")
	garmentType := flag.String("type", "", "garment type: upper or lower (default: detect from the ref)")
	outPath := flag.String("out", "tryon-result.png", "where to write the composite")
	aiModel := flag.String("model", "gemini-2.0-flash", "pipeline model name")
	backendURL := flag.String("backend", "http://localhost:8080", "api-server base URL (image proxy)")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall timeout")
	flag.Parse()

	if *garmentRef == "" {
		fmt.Fprintln(os.Stderr, "usage: tryon -garment <file|url> [-avatar <file>] [-type upper|lower]")
		os.Exit(1)
	}

	utils.LoadDotenv()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}
	store := storage.NewSQLStore(db)

	pipelineCfg := utils.LoadBackendConfig()
	pipeline := tryon.NewClient(pipelineCfg.BaseURL)
	pipeline.HTTP.Timeout = pipelineCfg.Timeout

	if *avatarPath != "" {
		upload, err := os.ReadFile(*avatarPath)
		if err != nil {
			log.Fatalf("read avatar: %v", err)
		}
		mgr := avatar.NewManager(store, pipeline, nil)
		if _, err := mgr.SetAvatar(ctx, upload); err != nil {
			log.Fatalf("set avatar: %v", err)
		}
		log.Println("[tryon] avatar stored")
	}

	garment, err := normalizeGarmentRef(*garmentRef)
	if err != nil {
		log.Fatalf("garment: %v", err)
	}

	gtype := *garmentType
	if gtype != models.GarmentUpper && gtype != models.GarmentLower {
		gtype = ""
	}
	if gtype == "" {
		gtype = classify.DetectGarmentType(*garmentRef)
	}

	orch := tryon.NewOrchestrator(pipeline, tryon.NewResolver(*backendURL), nil, store, *aiModel)

	result, err := orch.TryOnSingle(ctx, garment, gtype)
	if err != nil {
		log.Fatalf("try-on failed: %v", err)
	}

	// stage the composite through the blob registry so a write failure
	// never leaves a half-written output file
	registry, err := blobstore.NewRegistry("")
	if err != nil {
		log.Fatalf("blob registry: %v", err)
	}
	defer func() {
		if leaked, _ := registry.Close(); leaked > 0 {
			log.Printf("[tryon] %d blobs leaked past teardown", leaked)
		}
	}()

	blob, err := registry.Create(result, "png")
	if err != nil {
		log.Fatalf("stage result: %v", err)
	}

	data, err := registry.Read(blob.URI)
	if err != nil {
		log.Fatalf("read staged result: %v", err)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	if err := registry.Revoke(blob.URI); err != nil {
		log.Fatalf("revoke staged result: %v", err)
	}

	fmt.Printf("composite written to %s (%d bytes)\n", *outPath, len(result))
}

// normalizeGarmentRef turns a local file path into a data URI; URLs and
// data URIs pass through to the resolver.
func normalizeGarmentRef(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}

	b, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", ref, err)
	}

	mime := "image/png"
	switch {
	case strings.HasSuffix(ref, ".jpg"), strings.HasSuffix(ref, ".jpeg"):
		mime = "image/jpeg"
	case strings.HasSuffix(ref, ".webp"):
		mime = "image/webp"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
