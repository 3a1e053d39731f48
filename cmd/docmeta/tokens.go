package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/docmeta/internal/cli"
	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/naming"
	"github.com/Veraticus/docmeta/internal/search"
)

func tokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Show the search tokens for file metadata or a query",
		Long: `Show the weighted search tokens a file's metadata produces, with their
hash, or with --query the tokens a search string is split into.`,
		Args: cobra.NoArgs,
		RunE: runTokens,
	}
	cmd.Flags().String("customer", "", "Customer name")
	cmd.Flags().String("office", "", "Office name")
	cmd.Flags().String("document", "", "Document type")
	cmd.Flags().String("date", "", "File date (YYYY-MM-DD)")
	cmd.Flags().String("file", "", "File name")
	cmd.Flags().String("from-name", "", "Take metadata from a generated file name")
	cmd.Flags().String("query", "", "Tokenize a search query instead")
	cmd.Flags().Bool("json", false, "Print tokens as JSON")
	return cmd
}

func runTokens(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")

	if query, _ := cmd.Flags().GetString("query"); query != "" {
		words := search.TokenizeQueryByWords(query)
		if asJSON {
			return writeJSON(out, map[string]any{"tokens": search.TokenizeQuery(query), "words": words})
		}
		rows := make([][]string, 0, len(words))
		for i, w := range words {
			rows = append(rows, []string{strconv.Itoa(i + 1), fmt.Sprint(w)})
		}
		_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Word", "Tokens"}, rows))
		return nil
	}

	meta := search.Metadata{}
	meta.CustomerName, _ = cmd.Flags().GetString("customer")
	meta.OfficeName, _ = cmd.Flags().GetString("office")
	meta.DocumentType, _ = cmd.Flags().GetString("document")
	meta.FileName, _ = cmd.Flags().GetString("file")
	if name, _ := cmd.Flags().GetString("from-name"); name != "" {
		parsed := naming.ParseFileName(name)
		meta.FileName = name
		meta.DocumentType = parsed.DocumentType
		meta.OfficeName = parsed.OfficeName
		meta.CustomerName = strings.Join(parsed.CustomerNames, " ")
		meta.FileDate = parsed.Date
	}
	if s, _ := cmd.Flags().GetString("date"); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return common.NewUserError("--date must be YYYY-MM-DD", err)
		}
		meta.FileDate = &d
	}

	tokens := search.DocumentTokens(meta)
	hash := search.TokensHash(tokens)
	if asJSON {
		return writeJSON(out, struct {
			Hash   string            `json:"tokensHash"`
			Tokens []model.TokenInfo `json:"tokens"`
		}{Hash: hash, Tokens: tokens})
	}

	rows := make([][]string, 0, len(tokens))
	for _, t := range tokens {
		rows = append(rows, []string{t.Token, string(t.Field), strconv.FormatFloat(t.Weight, 'g', -1, 64), search.TokenID(t.Token)})
	}
	_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Token", "Field", "Weight", "ID"}, rows))
	_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render("hash "+hash))
	return nil
}
