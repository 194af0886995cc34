package editor

import "github.com/goliatone/go-formdraft/pkg/widget"

// ProjectErrors clears previous error marks on mount, then marks the
// element of every issue path together with each of its ancestors. It
// returns the marked paths in the order they were marked.
func ProjectErrors(mount widget.Mount, issues []widget.Issue) []string {
	if mount == nil {
		return nil
	}
	mount.ClearErrors()

	seen := make(map[string]struct{})
	var marked []string
	for _, issue := range issues {
		for _, path := range widget.Ancestors(issue.Path) {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			if mount.MarkError(path) {
				marked = append(marked, path)
			}
		}
	}
	return marked
}
