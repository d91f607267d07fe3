package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/models"
)

// maxDocumentChars bounds the extracted text included per document.
const maxDocumentChars = 12000

// ProjectDocument is everything the scoring prompt describes.
type ProjectDocument struct {
	Project     *models.Project
	Snapshot    *models.Snapshot
	Contents    []models.ProjectContent
	TeamMembers []models.TeamMember
}

// RenderProjectMarkdown serializes a project for the LLM. The output depends
// only on its inputs; analyzedAt feeds the single Analysis Date line.
func RenderProjectMarkdown(doc ProjectDocument, analyzedAt time.Time) string {
	snap := doc.Snapshot
	if snap == nil {
		snap = &models.Snapshot{}
	}

	var sb strings.Builder

	writeHeader(&sb, doc.Project, snap)
	writeOverview(&sb, snap)
	writeLocation(&sb, snap.Country, snap.City)
	writeLinks(&sb, snap)
	writeMedia(&sb, snap)
	writeDocumentation(&sb, doc.Contents)
	founders, others := splitFounders(doc.TeamMembers)
	writeTeam(&sb, founders, others)
	writeAnalysisContext(&sb, doc, snap, len(founders), analyzedAt)

	return sb.String()
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func writeHeader(sb *strings.Builder, project *models.Project, snap *models.Snapshot) {
	name := strings.TrimSpace(snap.Name)
	if name == "" {
		name = "Untitled Project"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", name))
	if slogan := strings.TrimSpace(snap.Slogan); slogan != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", slogan))
	}
	if project != nil && project.Slug != "" {
		sb.WriteString(fmt.Sprintf("**Project Slug:** %s\n", project.Slug))
	}
	sb.WriteString(fmt.Sprintf("**Snapshot Version:** %d\n\n", snap.Version))
}

func writeOverview(sb *strings.Builder, snap *models.Snapshot) {
	sb.WriteString("## Overview\n\n")
	if snap.Status != "" {
		sb.WriteString(fmt.Sprintf("**Stage:** %s\n\n", snap.Status))
	}
	if desc := strings.TrimSpace(snap.Description); desc != "" {
		sb.WriteString(desc + "\n\n")
	} else {
		sb.WriteString("_No description provided._\n\n")
	}
}

func writeLocation(sb *strings.Builder, country, city string) {
	country, city = strings.TrimSpace(country), strings.TrimSpace(city)
	if country == "" && city == "" {
		return
	}
	sb.WriteString("### Location\n\n")
	if country != "" {
		sb.WriteString(fmt.Sprintf("**Country:** %s\n", country))
	}
	if city != "" {
		sb.WriteString(fmt.Sprintf("**City:** %s\n", city))
	}
	sb.WriteString("\n")
}

func writeURLList(sb *strings.Builder, label string, urls []string) {
	if len(urls) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("**%s:**\n", label))
	for _, u := range urls {
		sb.WriteString(fmt.Sprintf("- %s\n", u))
	}
}

func writeLinks(sb *strings.Builder, snap *models.Snapshot) {
	repos, sites := nonEmpty(snap.RepositoryURLs), nonEmpty(snap.WebsiteURLs)
	if len(repos) == 0 && len(sites) == 0 {
		return
	}
	sb.WriteString("### Links\n\n")
	writeURLList(sb, "Repositories", repos)
	writeURLList(sb, "Websites", sites)
	sb.WriteString("\n")
}

func writeMedia(sb *strings.Builder, snap *models.Snapshot) {
	logo, banner := strings.TrimSpace(snap.LogoURL), strings.TrimSpace(snap.BannerURL)
	videos := nonEmpty(snap.VideoURLs)
	if logo == "" && banner == "" && len(videos) == 0 {
		return
	}
	sb.WriteString("### Media\n\n")
	if logo != "" {
		sb.WriteString(fmt.Sprintf("**Logo:** %s\n", logo))
	}
	if banner != "" {
		sb.WriteString(fmt.Sprintf("**Banner:** %s\n", banner))
	}
	writeURLList(sb, "Videos", videos)
	sb.WriteString("\n")
}

func writeDocumentation(sb *strings.Builder, contents []models.ProjectContent) {
	if len(contents) == 0 {
		return
	}
	sb.WriteString("## Documentation\n\n")
	for i, c := range contents {
		sb.WriteString(fmt.Sprintf("### %d. %s", i+1, strings.TrimSpace(c.Title)))
		if c.ContentType != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", c.ContentType))
		}
		sb.WriteString("\n\n")
		if desc := strings.TrimSpace(c.Description); desc != "" {
			sb.WriteString(fmt.Sprintf("**Description:** %s\n\n", desc))
		}
		if body := strings.TrimSpace(c.Content); body != "" {
			sb.WriteString(truncateRunes(body, maxDocumentChars) + "\n\n")
		}
		if files := nonEmpty(c.FileURLs); len(files) > 0 {
			writeURLList(sb, "Files", files)
			sb.WriteString("\n")
		}
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "\n\n[truncated]"
}

func splitFounders(members []models.TeamMember) (founders, others []models.TeamMember) {
	for _, m := range members {
		if m.IsFounder {
			founders = append(founders, m)
		} else {
			others = append(others, m)
		}
	}
	return founders, others
}

func writeTeam(sb *strings.Builder, founders, others []models.TeamMember) {
	if len(founders) == 0 && len(others) == 0 {
		return
	}
	sb.WriteString("## Team\n\n")
	if len(founders) > 0 {
		sb.WriteString("### Founders\n\n")
		for i, m := range founders {
			writeMember(sb, i+1, m)
		}
	}
	if len(others) > 0 {
		sb.WriteString("### Team Members\n\n")
		for i, m := range others {
			writeMember(sb, i+1, m)
		}
	}
}

func writeMember(sb *strings.Builder, n int, m models.TeamMember) {
	sb.WriteString(fmt.Sprintf("#### %d. %s\n\n", n, strings.TrimSpace(m.Name)))
	if positions := nonEmpty(m.Positions); len(positions) > 0 {
		sb.WriteString(fmt.Sprintf("- **Positions:** %s\n", strings.Join(positions, ", ")))
	}
	if m.EquityPercent != nil {
		sb.WriteString(fmt.Sprintf("- **Equity:** %g%%\n", *m.EquityPercent))
	}
	if m.Status != "" {
		sb.WriteString(fmt.Sprintf("- **Status:** %s\n", m.Status))
	}
	if loc := strings.Join(nonEmpty([]string{m.City, m.Country}), ", "); loc != "" {
		sb.WriteString(fmt.Sprintf("- **Location:** %s\n", loc))
	}
	for _, link := range []struct{ label, url string }{
		{"LinkedIn", m.LinkedInURL},
		{"Twitter", m.TwitterURL},
		{"GitHub", m.GitHubURL},
		{"Website", m.WebsiteURL},
	} {
		if u := strings.TrimSpace(link.url); u != "" {
			sb.WriteString(fmt.Sprintf("- **%s:** %s\n", link.label, u))
		}
	}
	sb.WriteString("\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeAnalysisContext(sb *strings.Builder, doc ProjectDocument, snap *models.Snapshot, founderCount int, analyzedAt time.Time) {
	sb.WriteString("---\n\n## Analysis Context\n\n")
	sb.WriteString(fmt.Sprintf("- **Analysis Date:** %s\n", analyzedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- **Documents:** %d\n", len(doc.Contents)))
	sb.WriteString(fmt.Sprintf("- **Team Members:** %d (founders: %d)\n", len(doc.TeamMembers), founderCount))
	sb.WriteString(fmt.Sprintf("- **Has Repository:** %s\n", yesNo(len(nonEmpty(snap.RepositoryURLs)) > 0)))
	sb.WriteString(fmt.Sprintf("- **Has Website:** %s\n", yesNo(len(nonEmpty(snap.WebsiteURLs)) > 0)))
	sb.WriteString(fmt.Sprintf("- **Has Video:** %s\n", yesNo(len(nonEmpty(snap.VideoURLs)) > 0)))
	published := doc.Project != nil && doc.Project.IsPublic
	sb.WriteString(fmt.Sprintf("- **Publicly Listed:** %s\n", yesNo(published)))
}
