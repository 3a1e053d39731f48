package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/testutil/masters"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t, masters.FixtureHomonyms)

	set, err := db.Storage.LoadMasters(context.Background())
	require.NoError(t, err)
	assert.Len(t, set.Customers, len(db.Masters.Customers))

	assert.Equal(t, "山田太郎", db.MustGetMaster(model.KindCustomer, "c1").Name)
	assert.True(t, db.MustGetMaster(model.KindCustomer, "c4").IsDuplicate)
}

func TestSetupTestDB_Empty(t *testing.T) {
	db := SetupTestDB(t, nil)

	set, err := db.Storage.LoadMasters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, set.Documents)
	assert.Empty(t, set.Customers)
}

func TestSetupTestDBWithBuilder(t *testing.T) {
	db := SetupTestDBWithBuilder(t, func(b masters.Builder) masters.Builder {
		return b.WithOffice("o1", "テストケア居宅介護支援事業所", "テストケア").
			WithCustomer("c1", "山田太郎", "o1").
			WithDocument("d1", "居宅サービス計画書", "計画書")
	})

	doc := db.MustGetMaster(model.KindDocument, "d1")
	assert.Equal(t, []string{"計画書"}, doc.Keywords)
	assert.Equal(t, "o1", db.MustGetMaster(model.KindCustomer, "c1").OfficeID)
}
