package resourcestore_test

import (
	"errors"
	"testing"

	resourcestore "github.com/dalemusser/coachhub/internal/app/store/resources"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resourcestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agentID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Resource{
		AgentID:     agentID,
		Title:       "  <b>Interview</b> basics ",
		Description: "<script>alert(1)</script>Read this",
		FileURL:     "https://files/x.pdf",
		FileKey:     "resources/x.pdf",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != "Interview basics" {
		t.Errorf("title: got %q, want %q", created.Title, "Interview basics")
	}
	if created.Description != "Read this" {
		t.Errorf("description: got %q, want %q", created.Description, "Read this")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AgentID != agentID || got.FileKey != "resources/x.pdf" {
		t.Errorf("GetByID: got %+v", got)
	}
}

func TestStore_Create_RequiresTitle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resourcestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Resource{AgentID: primitive.NewObjectID(), Title: "  "}); err == nil {
		t.Error("expected error for blank title")
	}
}

func TestStore_ListAndDeleteByAgent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := resourcestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := primitive.NewObjectID()
	theirs := primitive.NewObjectID()
	fixtures.CreateResource(ctx, mine, "One")
	fixtures.CreateResource(ctx, mine, "Two")
	fixtures.CreateResource(ctx, theirs, "Other")
	withFile, err := store.Create(ctx, models.Resource{AgentID: mine, Title: "File", FileKey: "resources/f.pdf"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.ListByAgent(ctx, mine)
	if err != nil {
		t.Fatalf("ListByAgent failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListByAgent: got %d, want 3", len(list))
	}
	if list[0].ID != withFile.ID {
		t.Error("expected newest resource first")
	}
	for _, r := range list {
		if r.AgentID != mine {
			t.Errorf("resource %v belongs to %v", r.ID, r.AgentID)
		}
	}

	keys, err := store.DeleteByAgent(ctx, mine)
	if err != nil {
		t.Fatalf("DeleteByAgent failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "resources/f.pdf" {
		t.Errorf("keys: got %v", keys)
	}
	if _, err := store.GetByID(ctx, withFile.ID); !errors.Is(err, resourcestore.ErrNotFound) {
		t.Errorf("GetByID after delete: got %v", err)
	}
	left, _ := store.ListByAgent(ctx, theirs)
	if len(left) != 1 {
		t.Errorf("other agent's resources: got %d, want 1", len(left))
	}
}
