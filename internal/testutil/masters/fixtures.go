package masters

import "github.com/Veraticus/docmeta/internal/model"

// Fixture is a predefined master set for a test scenario.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Masters returns a fresh copy of the fixture's entries.
	Masters() model.MasterSet
}

type fixture struct {
	build func() model.MasterSet
	name  string
}

func (f *fixture) Name() string             { return f.name }
func (f *fixture) Masters() model.MasterSet { return f.build() }

// Predefined fixtures.
var (
	// FixtureCare is a small care-office master set: two document types, two
	// offices and three customers, two of whom share an office.
	FixtureCare Fixture = &fixture{
		name: "Care",
		build: func() model.MasterSet {
			return model.MasterSet{
				Documents: []model.MasterEntry{
					{ID: "d1", Name: "居宅サービス計画書", Keywords: []string{"計画書", "第1表"}},
					{ID: "d2", Name: "サービス提供票", Aliases: []string{"提供票"}},
				},
				Offices: []model.MasterEntry{
					{ID: "o1", Name: "テストケア居宅介護支援事業所", ShortName: "テストケア"},
					{ID: "o2", Name: "みどり苑訪問介護ステーション", ShortName: "みどり苑"},
				},
				Customers: []model.MasterEntry{
					{ID: "c1", Name: "山田太郎", Furigana: "やまだたろう", OfficeID: "o1", CareManagerID: "m1"},
					{ID: "c2", Name: "佐藤花子", Furigana: "さとうはなこ", OfficeID: "o1", CareManagerID: "m1"},
					{ID: "c3", Name: "鈴木一郎", Furigana: "すずきいちろう", OfficeID: "o2", CareManagerID: "m2"},
				},
			}
		},
	}

	// FixtureHomonyms adds two customers with the same name to FixtureCare.
	FixtureHomonyms Fixture = &fixture{
		name: "Homonyms",
		build: func() model.MasterSet {
			set := FixtureCare.Masters()
			set.Customers = append(set.Customers,
				model.MasterEntry{ID: "c4", Name: "田中太郎", OfficeID: "o1"},
				model.MasterEntry{ID: "c5", Name: "田中 太郎", OfficeID: "o2"},
			)
			return set
		},
	}
)
