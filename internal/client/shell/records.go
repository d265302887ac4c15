package shell

import (
	"fmt"
	"text/tabwriter"

	"github.com/atinyakov/gophvault/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func (s *Shell) add() error {
	c, err := s.promptCredential()
	if err != nil {
		return err
	}
	rec, err := s.keeper.AddCredential(s.ctx, s.session, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Credential added: %s\n", rec.ID)
	return nil
}

func (s *Shell) list() error {
	items, err := s.keeper.ListCredentials(s.session)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No credentials")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Title, c.CreatedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

func (s *Shell) get(id string) error {
	c, err := s.keeper.OpenCredential(s.session, id)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", c.Title)
	fmt.Fprintf(tw, "Username:\t%s\n", c.Username)
	fmt.Fprintf(tw, "Password:\t%s\n", c.Password)
	fmt.Fprintf(tw, "URL:\t%s\n", c.URL)
	fmt.Fprintf(tw, "Notes:\t%s\n", c.Notes)
	return tw.Flush()
}

func (s *Shell) edit(id string) error {
	if _, err := s.keeper.Credentials().Get(id); err != nil {
		return err
	}
	u, err := s.promptCredentialUpdate()
	if err != nil {
		return err
	}
	if _, err := s.keeper.UpdateCredential(s.ctx, s.session, id, u); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Credential updated")
	return nil
}

func (s *Shell) deleteCredential(id string) error {
	if _, err := s.keeper.Credentials().Get(id); err != nil {
		return err
	}
	if err := s.keeper.DeleteCredential(s.ctx, s.session, id); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Credential deleted")
	return nil
}

func (s *Shell) addNote() error {
	n, err := s.promptNote()
	if err != nil {
		return err
	}
	rec, err := s.keeper.AddNote(s.ctx, s.session, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Note added: %s\n", rec.ID)
	return nil
}

func (s *Shell) notes() error {
	items, err := s.keeper.ListNotes(s.session)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No notes")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED")
	for _, n := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, n.Title, n.CreatedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

func (s *Shell) note(id string) error {
	rec, err := s.keeper.Notes().Get(id)
	if err != nil {
		return err
	}
	content, err := s.keeper.RevealNote(s.session, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n%s\n\n%s\n", rec.Title, noteDate(rec), content)
	return nil
}

func noteDate(n models.SecureNoteRecord) string {
	if !n.UpdatedAt.IsZero() {
		return "Updated " + n.UpdatedAt.Local().Format(timeLayout)
	}
	return "Created " + n.CreatedAt.Local().Format(timeLayout)
}

func (s *Shell) deleteNote(id string) error {
	if _, err := s.keeper.Notes().Get(id); err != nil {
		return err
	}
	if err := s.keeper.DeleteNote(s.ctx, s.session, id); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Note deleted")
	return nil
}
