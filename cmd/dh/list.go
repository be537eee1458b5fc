package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listTag  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories and tags",
	Long:  `List configured repositories and tags.`,
}

var listReposCmd = &cobra.Command{
	Use:     "repos",
	Aliases: []string{"repositories", "r"},
	Short:   "List repositories",
	RunE:    runListRepos,
}

var listTagsCmd = &cobra.Command{
	Use:     "tags",
	Aliases: []string{"t"},
	Short:   "List all tags",
	RunE:    runListTags,
}

func init() {
	listCmd.PersistentFlags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.PersistentFlags().StringVarP(&listTag, "tag", "t", "", "filter by tag")

	listCmd.AddCommand(listReposCmd)
	listCmd.AddCommand(listTagsCmd)
	rootCmd.AddCommand(listCmd)
}

func runListRepos(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	repos := cfg.Repositories
	if listTag != "" {
		repos = cfg.GetRepositoriesByTag(listTag)
	}

	if len(repos) == 0 {
		fmt.Fprintln(out, "No repositories found")
		return nil
	}

	if listJSON {
		type jsonRepo struct {
			Name string   `json:"name"`
			Path string   `json:"path"`
			Tags []string `json:"tags,omitempty"`
		}

		output := make([]jsonRepo, len(repos))
		for i, r := range repos {
			path, err := cfg.ResolvePath(&r)
			if err != nil {
				return err
			}
			output[i] = jsonRepo{Name: r.Name, Path: path, Tags: r.Tags}
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPATH\tTAGS")

	for _, r := range repos {
		tags := "-"
		if len(r.Tags) > 0 {
			tags = strings.Join(r.Tags, ", ")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.GetEffectivePath(), tags)
	}

	return w.Flush()
}

func runListTags(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	tagSet := make(map[string]int)
	for _, r := range cfg.Repositories {
		for _, t := range r.Tags {
			tagSet[t]++
		}
	}

	if len(tagSet) == 0 {
		fmt.Fprintln(out, "No tags found")
		return nil
	}

	names := make([]string, 0, len(tagSet))
	for name := range tagSet {
		names = append(names, name)
	}
	sort.Strings(names)

	if listJSON {
		type jsonTag struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}

		output := make([]jsonTag, 0, len(names))
		for _, name := range names {
			output = append(output, jsonTag{Name: name, Count: tagSet[name]})
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TAG\tCOUNT")
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", name, tagSet[name])
	}

	return w.Flush()
}
