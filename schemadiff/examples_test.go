package schemadiff_test

import (
	"context"
	"fmt"
	"log"

	"github.com/schemadiff/schemadiff/schemadiff"
)

const bookstoreV1 = `
database: bookstore
entities:
  - name: book
    fields:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: title, type: VARCHAR, size: 100}
  - name: author
    fields:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: name, type: VARCHAR, size: 50}
`

const bookstoreV2 = `
database: bookstore
entities:
  - name: book
    fields:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: title, type: VARCHAR, size: 200}
  - name: writer
    fields:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: name, type: VARCHAR, size: 50}
`

// ExampleCompare compares two schemas loaded in memory.
func ExampleCompare() {
	from, err := schemadiff.LoadYAML([]byte(bookstoreV1), nil)
	if err != nil {
		log.Fatal(err)
	}
	to, err := schemadiff.LoadYAML([]byte(bookstoreV2), nil)
	if err != nil {
		log.Fatal(err)
	}

	d, err := schemadiff.Compare(from, to)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(d.Description())
	// Output: 1 added entity, 1 removed entity, 1 modified entity
}

// ExampleWithRenaming shows an entity with an unchanged column shape reported as a rename.
func ExampleWithRenaming() {
	from, err := schemadiff.LoadYAML([]byte(bookstoreV1), nil)
	if err != nil {
		log.Fatal(err)
	}
	to, err := schemadiff.LoadYAML([]byte(bookstoreV2), nil)
	if err != nil {
		log.Fatal(err)
	}

	d, err := schemadiff.Compare(from, to, schemadiff.WithRenaming(true))
	if err != nil {
		log.Fatal(err)
	}
	newName, _ := d.RenamedEntities().Get("author")
	fmt.Println("author ->", newName)
	fmt.Println(d.Description())
	// Output:
	// author -> writer
	// 1 modified entity, 1 renamed entity
}

// ExampleDiff compares a live PostgreSQL schema against a schema file.
func ExampleDiff() {
	ctx := context.Background()

	p, err := schemadiff.Diff(ctx, schemadiff.DiffOptions{
		From:         "postgres://app@localhost:5432/shop?sslmode=disable",
		To:           "schema.sql",
		WithRenaming: true,
		Platform:     "pgsql",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Print(p.HumanColored(false))
}
