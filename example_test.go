package jdoc_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/jdoc"
)

// Example_basic builds a document and prints its canonical form.
func Example_basic() {
	doc, err := jdoc.New(jdoc.Fields{"Name": "Ada", "age": 36, "_rev": 1, "nickname": nil})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(doc)
	age, _ := doc.Int("age")
	fmt.Println(age)
	// Output:
	// {"age":36,"name":"Ada"}
	// 36
}

// Example_equality shows that field order and number spelling do not matter.
func Example_equality() {
	a, err := jdoc.Decode([]byte(`{"b": 1.0, "a": [true, null]}`))
	if err != nil {
		log.Fatal(err)
	}
	b, err := jdoc.New(jdoc.Fields{"a": []any{true, nil}, "b": 1})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(a.Equal(b), a.Hash() == b.Hash())
	// Output:
	// true true
}

// Example_schema validates documents with a schema.
func Example_schema() {
	person := &jdoc.Schema{Name: "person", Required: []string{"name"}}

	_, err := jdoc.NewWithSchema(person, jdoc.Fields{"age": 3})
	fmt.Println(err != nil)

	doc, err := jdoc.NewBuilder(person).Set("name", "Grace").Build()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(doc)
	// Output:
	// true
	// {"name":"Grace"}
}

// ExampleOpen stores a document on the filesystem and reads it back.
func ExampleOpen() {
	tmpDir, err := os.MkdirTemp("", "jdoc-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	repo, err := jdoc.Open(ctx, tmpDir)
	if err != nil {
		log.Fatal(err)
	}

	doc, err := jdoc.New(jdoc.Fields{"title": "hello", "_rev": 2})
	if err != nil {
		log.Fatal(err)
	}
	if err := repo.Save(ctx, "notes/hello", doc); err != nil {
		log.Fatal(err)
	}

	got, err := repo.Get(ctx, "notes/hello")
	if err != nil {
		log.Fatal(err)
	}
	rev, _ := got.Int("_rev")
	fmt.Println(got, rev)
	// Output:
	// {"title":"hello"} 2
}

// ExampleNewTyped uses the generic wrapper for type safety.
func ExampleNewTyped() {
	type User struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	ctx := context.Background()
	repo, err := jdoc.Open(ctx, "", jdoc.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	users := jdoc.NewTyped[User](repo)

	if err := users.New("users/alice", User{Name: "Alice", Email: "alice@example.com"}).Save(ctx); err != nil {
		log.Fatal(err)
	}

	got, err := users.Get(ctx, "users/alice")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("User Name: %s\n", got.Data.Name)
	email, _ := got.Doc.Text("email")
	fmt.Println(email)
	// Output:
	// User Name: Alice
	// alice@example.com
}
