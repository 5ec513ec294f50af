package command

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"course-portal/internal/apiclient"
	"course-portal/internal/domain"

	"github.com/urfave/cli/v2"
)

const updateUsage = "coursectl courses update --title TITLE [--description TEXT] COURSE_ID"

// CoursesCommand returns the courses subcommand group.
func CoursesCommand() *cli.Command {
	courseFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Course title", Required: true},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Course description"},
	}
	// update checks --title itself so a misplaced COURSE_ID gets a usable error
	updateFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Course title (required)"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Course description"},
	}

	return &cli.Command{
		Name:    "courses",
		Aliases: []string{"course"},
		Usage:   "Manage courses",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List courses",
				Action: coursesList,
			},
			{
				Name:      "get",
				Usage:     "Show one course",
				ArgsUsage: "COURSE_ID",
				Action:    coursesGet,
			},
			{
				Name:   "create",
				Usage:  "Create a course",
				Flags:  courseFlags,
				Action: coursesCreate,
			},
			{
				Name:      "update",
				Usage:     "Replace a course's title and description",
				UsageText: updateUsage,
				ArgsUsage: "COURSE_ID",
				Flags:     updateFlags,
				Action:    coursesUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a course",
				ArgsUsage: "COURSE_ID",
				Action:    coursesDelete,
			},
		},
	}
}

func coursesList(c *cli.Context) error {
	rt := GetRuntime(c)
	if err := rt.Navigate("/courses"); err != nil {
		return err
	}

	courses, err := apiclient.NewCoursesAPI(rt.Client).List(commandContext(c))
	if err != nil {
		return rt.Finish(err)
	}

	if rt.Output == "json" {
		return writeJSON(c.App.Writer, courses)
	}
	if len(courses) == 0 {
		fmt.Fprintln(c.App.Writer, "No courses found")
		return nil
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
	for _, course := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", course.ID, course.Title, course.Description)
	}
	return tw.Flush()
}

func coursesGet(c *cli.Context) error {
	rt := GetRuntime(c)
	id, err := courseID(c)
	if err != nil {
		return err
	}
	if err := rt.Navigate("/courses/" + url.PathEscape(id)); err != nil {
		return err
	}

	course, err := apiclient.NewCoursesAPI(rt.Client).Get(commandContext(c), id)
	if err != nil {
		return rt.Finish(err)
	}
	return printCourse(c, rt, course)
}

func coursesCreate(c *cli.Context) error {
	rt := GetRuntime(c)
	if err := rt.Navigate("/courses/new"); err != nil {
		return err
	}

	created, err := apiclient.NewCoursesAPI(rt.Client).Create(commandContext(c), domain.Course{
		Title:       c.String("title"),
		Description: c.String("description"),
	})
	if err != nil {
		return rt.Finish(err)
	}
	return printCourse(c, rt, created)
}

func coursesUpdate(c *cli.Context) error {
	rt := GetRuntime(c)
	if c.NArg() > 1 {
		return fmt.Errorf("options must come before COURSE_ID: %s", updateUsage)
	}
	id, err := courseID(c)
	if err != nil {
		return err
	}
	if c.String("title") == "" {
		return fmt.Errorf("--title is required")
	}
	if err := rt.Navigate("/courses/" + url.PathEscape(id)); err != nil {
		return err
	}

	updated, err := apiclient.NewCoursesAPI(rt.Client).Update(commandContext(c), id, domain.Course{
		Title:       c.String("title"),
		Description: c.String("description"),
	})
	if err != nil {
		return rt.Finish(err)
	}
	return printCourse(c, rt, updated)
}

func coursesDelete(c *cli.Context) error {
	rt := GetRuntime(c)
	id, err := courseID(c)
	if err != nil {
		return err
	}
	if err := rt.Navigate("/courses/" + url.PathEscape(id)); err != nil {
		return err
	}

	if err := apiclient.NewCoursesAPI(rt.Client).Delete(commandContext(c), id); err != nil {
		return rt.Finish(err)
	}
	fmt.Fprintf(c.App.Writer, "Deleted course %s\n", id)
	return nil
}

func courseID(c *cli.Context) (string, error) {
	if c.NArg() != 1 || c.Args().First() == "" {
		return "", fmt.Errorf("expected exactly one COURSE_ID argument")
	}
	return c.Args().First(), nil
}

func printCourse(c *cli.Context, rt *Runtime, course *domain.Course) error {
	if rt.Output == "json" {
		return writeJSON(c.App.Writer, course)
	}
	fmt.Fprintf(c.App.Writer, "ID:          %s\n", course.ID)
	fmt.Fprintf(c.App.Writer, "Title:       %s\n", course.Title)
	fmt.Fprintf(c.App.Writer, "Description: %s\n", course.Description)
	return nil
}
