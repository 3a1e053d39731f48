package matcher

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/model"
)

const scenarioText = "令和7年1月18日 利用者: 山田太郎 発行元: テストケア"

func TestMatch_Scenario(t *testing.T) {
	customers := New(CustomerProfile()).Match(scenarioText, []model.MasterEntry{{ID: "c1", Name: "山田太郎"}}, Options{PageNumber: 1})
	offices := New(OfficeProfile()).Match(scenarioText, []model.MasterEntry{{ID: "o1", Name: "テストケア"}}, Options{PageNumber: 1})

	require.NotNil(t, customers.BestMatch)
	assert.Equal(t, "山田太郎", customers.BestMatch.Name)
	assert.Equal(t, 100, customers.BestMatch.Score)
	assert.Equal(t, model.MatchExact, customers.BestMatch.MatchType)
	assert.Equal(t, []int{1}, customers.BestMatch.PageNumbers)
	assert.False(t, customers.NeedsManualSelection)

	require.NotNil(t, offices.BestMatch)
	assert.Equal(t, "テストケア", offices.BestMatch.Name)
	assert.GreaterOrEqual(t, offices.BestMatch.Score, 95)
	assert.False(t, offices.NeedsManualSelection)
}

func TestMatch_DuplicateForcesReview(t *testing.T) {
	entries := []model.MasterEntry{
		{ID: "c1", Name: "田中太郎"},
		{ID: "c2", Name: "田中太郎"},
	}
	model.MarkDuplicates(entries)

	result := New(CustomerProfile()).Match("利用者 田中太郎 様", entries, Options{})

	require.NotNil(t, result.BestMatch)
	assert.True(t, result.BestMatch.IsDuplicate)
	assert.True(t, result.NeedsManualSelection)
	assert.Len(t, result.Candidates, 2)
}

func TestMatch_Rules(t *testing.T) {
	tests := []struct {
		name      string
		profile   Profile
		text      string
		entry     model.MasterEntry
		wantScore int
		wantType  model.MatchType
		wantNone  bool
	}{
		{
			name:      "exact after normalization",
			profile:   CustomerProfile(),
			text:      "氏名　山田　太郎",
			entry:     model.MasterEntry{ID: "c1", Name: "山田太郎"},
			wantScore: 100,
			wantType:  model.MatchExact,
		},
		{
			name:      "furigana",
			profile:   CustomerProfile(),
			text:      "ふりがな やまだ たろう",
			entry:     model.MasterEntry{ID: "c1", Name: "山田太郎", Furigana: "やまだたろう"},
			wantScore: 95,
			wantType:  model.MatchExact,
		},
		{
			name:     "furigana ignored for offices",
			profile:  OfficeProfile(),
			text:     "ふりがな やまだけあ",
			entry:    model.MasterEntry{ID: "o1", Name: "山田ケアセンター東", Furigana: "やまだけあ"},
			wantNone: true,
		},
		{
			name:      "office short name",
			profile:   OfficeProfile(),
			text:      "発行: 西春クリニック",
			entry:     model.MasterEntry{ID: "o1", Name: "西春内科在宅クリニック", ShortName: "西春クリニック"},
			wantScore: 95,
			wantType:  model.MatchExact,
		},
		{
			name:      "alias",
			profile:   OfficeProfile(),
			text:      "ほのぼの苑 御中",
			entry:     model.MasterEntry{ID: "o1", Name: "特別養護老人ホームほのぼの", Aliases: []string{"ほのぼの苑"}},
			wantScore: 95,
			wantType:  model.MatchExact,
		},
		{
			name:      "office prefix",
			profile:   OfficeProfile(),
			text:      "ケアプランセンター北 TEL",
			entry:     model.MasterEntry{ID: "o1", Name: "ケアプランセンター北名古屋"},
			wantScore: 85,
			wantType:  model.MatchPartial,
		},
		{
			name:      "document prefix",
			profile:   DocumentProfile(),
			text:      "居宅サービス計画 第1表",
			entry:     model.MasterEntry{ID: "d1", Name: "居宅サービス計画書"},
			wantScore: 90,
			wantType:  model.MatchPartial,
		},
		{
			name:      "document keywords",
			profile:   DocumentProfile(),
			text:      "週間 サービス 利用票 提供票",
			entry:     model.MasterEntry{ID: "d1", Name: "週間サービス計画表", Keywords: []string{"利用票", "提供票"}},
			wantScore: 90,
			wantType:  model.MatchPartial,
		},
		{
			name:      "single keyword",
			profile:   DocumentProfile(),
			text:      "要介護認定 結果",
			entry:     model.MasterEntry{ID: "d2", Name: "認定調査票", Keywords: []string{"要介護認定"}},
			wantScore: 85,
			wantType:  model.MatchPartial,
		},
		{
			name:      "customer fuzzy",
			profile:   CustomerProfile(),
			text:      "利用者 佐藤はなこ",
			entry:     model.MasterEntry{ID: "c1", Name: "佐藤花子"},
			wantNone:  true,
			wantScore: 0,
		},
		{
			name:      "office fuzzy on ocr noise",
			profile:   OfficeProfile(),
			text:      "訪問看護ステ一シヨンみどリ",
			entry:     model.MasterEntry{ID: "o1", Name: "訪問看護ステーションみどり"},
			wantScore: 77,
			wantType:  model.MatchFuzzy,
		},
		{
			name:     "document beyond search range",
			profile:  DocumentProfile(),
			text:     strings.Repeat("あ", 310) + "居宅サービス計画書",
			entry:    model.MasterEntry{ID: "d1", Name: "居宅サービス計画書"},
			wantNone: true,
		},
		{
			name:     "empty name never matches",
			profile:  CustomerProfile(),
			text:     "山田太郎",
			entry:    model.MasterEntry{ID: "c1", Name: "  "},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.profile).Match(tt.text, []model.MasterEntry{tt.entry}, Options{})
			if tt.wantNone {
				assert.Nil(t, result.BestMatch)
				assert.Empty(t, result.Candidates)
				return
			}
			require.NotNil(t, result.BestMatch)
			assert.Equal(t, tt.wantScore, result.BestMatch.Score)
			assert.Equal(t, tt.wantType, result.BestMatch.MatchType)
		})
	}
}

func TestMatch_Fuzzy(t *testing.T) {
	entry := model.MasterEntry{ID: "c1", Name: "長谷川一郎"}
	m := New(CustomerProfile())

	tests := []struct {
		name      string
		text      string
		wantScore int
		wantNone  bool
	}{
		{
			// One OCR substitution; the window is clipped to the five-rune text.
			name:      "substitution in a short text",
			text:      "長谷用一郎",
			wantScore: 80,
		},
		{
			// The window spans name length plus margin, so surrounding text counts.
			name:     "substitution inside a longer line",
			text:     "利用者 長谷用一郎 様",
			wantNone: true,
		},
		{
			name:     "different person with a shared family name",
			text:     "利用者 長谷部一郎 様のケアプラン",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.Match(tt.text, []model.MasterEntry{entry}, Options{})
			if tt.wantNone {
				assert.Nil(t, result.BestMatch)
				return
			}
			require.NotNil(t, result.BestMatch)
			assert.Equal(t, model.MatchFuzzy, result.BestMatch.MatchType)
			assert.Equal(t, tt.wantScore, result.BestMatch.Score)
		})
	}
}

func TestMatch_FuzzyRejectsSimilarName(t *testing.T) {
	entries := []model.MasterEntry{{ID: "c1", Name: "山田太郎"}}

	result := New(CustomerProfile()).Match("利用者 山口太郎 様のケアプラン", entries, Options{})

	assert.Nil(t, result.BestMatch)
	assert.Empty(t, result.Candidates)
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := New(CustomerProfile())

	empty := m.Match("", []model.MasterEntry{{ID: "c1", Name: "山田太郎"}}, Options{})
	assert.Nil(t, empty.BestMatch)
	assert.NotNil(t, empty.Candidates)

	noMasters := m.Match("山田太郎", nil, Options{})
	assert.Nil(t, noMasters.BestMatch)
	assert.False(t, noMasters.NeedsManualSelection)
}

func TestMatch_CapsAndOrders(t *testing.T) {
	var entries []model.MasterEntry
	for i := 0; i < 15; i++ {
		entries = append(entries, model.MasterEntry{ID: fmt.Sprintf("o%02d", i), Name: fmt.Sprintf("テストケア%02d", i)})
	}
	text := "テストケア03 テストケア11"

	result := New(OfficeProfile()).Match(text, entries, Options{})

	require.Len(t, result.Candidates, model.MaxCandidates)
	for i := 1; i < len(result.Candidates); i++ {
		assert.GreaterOrEqual(t, result.Candidates[i-1].Score, result.Candidates[i].Score)
	}
	assert.Equal(t, result.Candidates[0], *result.BestMatch)
	assert.True(t, result.NeedsManualSelection, "two exact hits tie")
}

func TestMatch_FileNameHint(t *testing.T) {
	entries := []model.MasterEntry{
		{ID: "o1", Name: "西春内科在宅クリニック"},
		{ID: "o2", Name: "西春内科クリニック"},
	}
	hint := ParseFileNameHint("西春内科在宅クリニック-L1-20260122101727.pdf")
	// OCR read ニッ as 二ツ.
	text := "西春内科在宅クリ二ツク"

	without := New(OfficeProfile()).Match(text, entries, Options{})
	with := New(OfficeProfile()).Match(text, entries, Options{FileHint: &hint})

	require.Len(t, without.Candidates, 1)
	assert.Equal(t, "o1", without.BestID())
	assert.Equal(t, 85, without.BestScore())

	require.Len(t, with.Candidates, 2)
	assert.Equal(t, "o1", with.BestID())
	assert.Equal(t, 100, with.BestScore())
	assert.Equal(t, "o2", with.Candidates[1].ID)
	assert.Equal(t, 74, with.Candidates[1].Score, "near-threshold fuzzy score lifted by the hint")
	assert.Equal(t, model.MatchFuzzy, with.Candidates[1].MatchType)

	customers := New(CustomerProfile()).Match(text, entries, Options{FileHint: &hint})
	require.Len(t, customers.Candidates, 1)
	assert.Equal(t, 85, customers.BestScore(), "customers never use the hint")
}

func TestMatch_Deterministic(t *testing.T) {
	entries := []model.MasterEntry{
		{ID: "c1", Name: "山田太郎"},
		{ID: "c2", Name: "山田太一"},
		{ID: "c3", Name: "山本太郎"},
	}
	m := New(CustomerProfile())
	first := m.Match(scenarioText, entries, Options{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Match(scenarioText, entries, Options{}))
	}
}

func TestPrefixLength(t *testing.T) {
	assert.Equal(t, 3, PrefixLength(4, 0.75))
	assert.Equal(t, 2, PrefixLength(3, 0.8))
	assert.Equal(t, 0, PrefixLength(2, 0.75))
	assert.Equal(t, 7, PrefixLength(9, 0.8))
}

func TestParseFileNameHint(t *testing.T) {
	tests := []struct {
		file       string
		wantType   HintType
		wantPrefix string
	}{
		{file: "西春内科在宅クリニック-L1-20260122101727.pdf", wantType: HintOfficeName, wantPrefix: "西春内科在宅クリニック"},
		{file: "0529088423-L1-20260122104653.pdf", wantType: HintPhoneNumber, wantPrefix: "0529088423"},
		{file: "DOC260122-L1-20260122101412.pdf", wantType: HintDocumentID, wantPrefix: "DOC260122"},
		{file: "scan.pdf", wantType: HintUnknown, wantPrefix: "scan"},
		{file: "", wantType: HintUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			hint := ParseFileNameHint(tt.file)
			assert.Equal(t, tt.wantType, hint.Type)
			assert.Equal(t, tt.wantPrefix, hint.Prefix)
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	for _, kind := range model.EntityKinds {
		p, err := ProfileFor(kind)
		require.NoError(t, err)
		assert.NoError(t, p.Validate())
	}

	bad := CustomerProfile()
	bad.MinScore = 120
	assert.Error(t, bad.Validate())

	_, err := ProfileFor("vendor")
	assert.Error(t, err)
}
