package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/stagehq/upload-validator/internal/config"
	"github.com/stagehq/upload-validator/internal/domain"
	"github.com/stagehq/upload-validator/internal/storage"
)

func newBucketFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "bucket",
		Usage:    "Bucket holding the object",
		Required: true,
	}
}

func newKeyFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "key",
		Usage:    "Object key",
		Required: true,
	}
}

func newVersionFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "version-id",
		Usage:    "Object version id",
		Required: true,
	}
}

func newStore() (*storage.MinioTagStore, error) {
	cfg := config.Load()
	return storage.NewMinioTagStore(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
}

func objectRef(c *cli.Context) domain.ObjectReference {
	return domain.ObjectReference{
		Bucket:    c.String("bucket"),
		Key:       c.String("key"),
		VersionID: c.String("version-id"),
	}
}

func showTags(c *cli.Context) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	ref := objectRef(c)
	set, err := store.ReadTags(c.Context, ref)
	if err != nil {
		return err
	}

	if len(set) == 0 {
		fmt.Printf("%s has no tags\n", ref)
		return nil
	}
	for _, t := range set {
		fmt.Printf("%s=%s\n", t.Key, t.Value)
	}
	return nil
}

func removeTag(c *cli.Context) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	ref := objectRef(c)
	set, err := store.ReadTags(c.Context, ref)
	if err != nil {
		return err
	}

	name := c.String("tag")
	if err := store.WriteTags(c.Context, ref, domain.Remove(set, name)); err != nil {
		return err
	}
	fmt.Printf("removed tag %s from %s\n", name, ref)
	return nil
}

// requeueObject swaps the quarantine marker back to the in-progress one so
// the object can be resubmitted for validation. Objects that are not
// quarantined are left untouched.
func requeueObject(c *cli.Context) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	ref := objectRef(c)
	set, err := store.ReadTags(c.Context, ref)
	if err != nil {
		return err
	}

	if _, quarantined := set.Lookup(domain.TagQuarantine); !quarantined {
		fmt.Printf("%s is not quarantined, nothing to do\n", ref)
		return nil
	}

	next := domain.Replace(set, domain.TagQuarantine, domain.TagValidating, true)
	if err := store.WriteTags(c.Context, ref, next); err != nil {
		return err
	}
	fmt.Printf("requeued %s for validation\n", ref)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "tagctl",
		Usage: "Inspect and repair validation tags on stored objects",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current tags of an object version",
				Flags:  []cli.Flag{newBucketFlag(), newKeyFlag(), newVersionFlag()},
				Action: showTags,
			},
			{
				Name:  "remove",
				Usage: "Remove a single tag from an object version",
				Flags: []cli.Flag{
					newBucketFlag(), newKeyFlag(), newVersionFlag(),
					&cli.StringFlag{
						Name:     "tag",
						Usage:    "Tag name to remove",
						Required: true,
					},
				},
				Action: removeTag,
			},
			{
				Name:   "requeue",
				Usage:  "Replace the quarantine tag so the object can be validated again",
				Flags:  []cli.Flag{newBucketFlag(), newKeyFlag(), newVersionFlag()},
				Action: requeueObject,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
