package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/scoring"
)

var errAborted = errors.New("assessment cancelled")

func (a *app) assess(ctx context.Context) error {
	form := assessment.NewForm()
	fmt.Fprintln(a.out, titleStyle.Render("Over the last 2 weeks, how often have you been bothered by the following?"))
	for v, opt := range assessment.Options {
		fmt.Fprintf(a.out, "  %d = %s\n", v, opt)
	}
	fmt.Fprintln(a.out, faintStyle.Render("Press enter to skip an item, q to quit."))

	instruments := []scoring.Instrument{scoring.PHQ9, scoring.GAD7}
	for _, in := range instruments {
		fmt.Fprintf(a.out, "\n%s\n", titleStyle.Render(in.String()))
		if err := a.askItems(form, in, allItems(in)); err != nil {
			return err
		}
	}
	if err := a.askStress(form); err != nil {
		return err
	}

	for {
		err := form.Validate()
		if err == nil {
			break
		}
		fmt.Fprintln(a.out, errorStyle.Render(err.Error()))
		for _, in := range instruments {
			if missing := unanswered(form, in); len(missing) > 0 {
				if err := a.askItems(form, in, missing); err != nil {
					return err
				}
			}
		}
	}

	agg := assessment.NewAggregator(a.api)
	res, err := agg.Submit(ctx, form)
	if err != nil {
		return errors.New(agg.Err())
	}
	fmt.Fprintf(a.out, "\nPHQ-9: %d (%s)   GAD-7: %d (%s)   Stress: %d/10\n",
		res.PHQ9Score, severityLabel(scoring.PHQ9, res.PHQ9Score),
		res.GAD7Score, severityLabel(scoring.GAD7, res.GAD7Score),
		res.StressLevel)
	fmt.Fprintf(a.out, "Overall risk: %s\n", tierBadge(res.Risk()))
	if res.Risk() >= scoring.ModeratelySevere {
		fmt.Fprintln(a.out, faintStyle.Render("Consider talking to a mental health professional. If you are in crisis, call or text 988."))
	}
	return nil
}

func allItems(in scoring.Instrument) []int {
	idx := make([]int, in.Items())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func unanswered(f *assessment.Form, in scoring.Instrument) []int {
	answers := f.PHQ9
	if in == scoring.GAD7 {
		answers = f.GAD7
	}
	var out []int
	for i, v := range answers {
		if v == scoring.Unanswered {
			out = append(out, i)
		}
	}
	return out
}

func (a *app) askItems(f *assessment.Form, in scoring.Instrument, items []int) error {
	questions := assessment.Questions(in)
	for _, i := range items {
		for {
			line, err := a.prompt(fmt.Sprintf("%d. %s [0-3]: ", i+1, questions[i]))
			if err != nil {
				return err
			}
			if line == "" {
				break
			}
			if strings.EqualFold(line, "q") {
				return errAborted
			}
			v, err := strconv.Atoi(line)
			if err == nil {
				err = f.Set(in, i, v)
			}
			if err == nil {
				break
			}
			fmt.Fprintln(a.out, errorStyle.Render("Enter a number from 0 to 3."))
		}
	}
	return nil
}

func (a *app) askStress(f *assessment.Form) error {
	for {
		line, err := a.prompt(fmt.Sprintf("\nCurrent stress level [0-10, default %d]: ", assessment.DefaultStress))
		if err != nil {
			return err
		}
		if line == "" {
			f.Stress = assessment.DefaultStress
			return nil
		}
		v, err := strconv.Atoi(line)
		if err == nil {
			err = scoring.ValidateStress(v)
		}
		if err == nil {
			f.Stress = v
			return nil
		}
		fmt.Fprintln(a.out, errorStyle.Render("Enter a number from 0 to 10."))
	}
}
