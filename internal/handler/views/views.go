// Package views holds the HTML pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/etiennegwiavander/linguaflow/internal/i18n"
	"github.com/etiennegwiavander/linguaflow/internal/material"
	"github.com/etiennegwiavander/linguaflow/internal/model"
	"github.com/etiennegwiavander/linguaflow/internal/render"
)

type page struct {
	w   io.Writer
	ctx context.Context
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) t(msgID string) {
	p.text(appI18n.T(p.ctx, msgID))
}

func (p *page) href(path string) string {
	return templ.EscapeString(model.BasePathFromContext(p.ctx) + path)
}

func (p *page) csrfField() {
	token := model.CSRFTokenFromContext(p.ctx)
	p.raw(`<input type="hidden" name="csrf_token" value="` + templ.EscapeString(token) + `">`)
}

func (p *page) open(title string) {
	p.raw(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
	p.text(title)
	p.raw(` - `)
	p.t("AppName")
	p.raw(`</title><link rel="stylesheet" href="` + p.href("/static/app.css") + `"></head><body>`)
}

func (p *page) nav() {
	tutor := model.TutorFromContext(p.ctx)
	p.raw(`<nav><a href="` + p.href("/") + `">`)
	p.t("LessonsTitle")
	p.raw(`</a> <a href="` + p.href("/students") + `">`)
	p.t("StudentsTitle")
	p.raw(`</a>`)
	if tutor != nil && tutor.Role == model.RoleAdmin {
		p.raw(` <a href="` + p.href("/admin/tutors") + `">`)
		p.t("TutorsTitle")
		p.raw(`</a> <a href="` + p.href("/admin/templates") + `">`)
		p.t("TemplatesTitle")
		p.raw(`</a>`)
	}
	p.raw(`<form method="post" action="` + p.href("/logout") + `" class="inline">`)
	p.csrfField()
	p.raw(`<button type="submit">`)
	p.t("LogoutButton")
	p.raw(`</button></form></nav>`)
}

func (p *page) close() {
	p.raw(`</body></html>`)
}

func component(f func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w, ctx: ctx}
		f(p)
		return p.err
	})
}

// LoginPage renders the tutor sign-in form, with an optional error notice.
func LoginPage(errMsg string) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "LoginTitle"))
		p.raw(`<main class="auth"><h1>`)
		p.t("LoginTitle")
		p.raw(`</h1>`)
		if errMsg != "" {
			p.raw(`<p class="error">`)
			p.text(errMsg)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="` + p.href("/login") + `">`)
		p.csrfField()
		p.raw(`<input type="email" name="email" required placeholder="email">`)
		p.raw(`<input type="password" name="password" required placeholder="password">`)
		p.raw(`<button type="submit">`)
		p.t("LoginButton")
		p.raw(`</button></form>`)
		p.raw(`<p><a href="` + p.href("/password/forgot") + `">`)
		p.t("ForgotPassword")
		p.raw(`</a></p></main>`)
		p.close()
	})
}

// ForgotPasswordPage renders the reset-request form.
func ForgotPasswordPage(notice string) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "ResetTitle"))
		p.raw(`<main class="auth"><h1>`)
		p.t("ResetTitle")
		p.raw(`</h1>`)
		if notice != "" {
			p.raw(`<p class="notice">`)
			p.text(notice)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="` + p.href("/password/forgot") + `">`)
		p.csrfField()
		p.raw(`<input type="email" name="email" required placeholder="email">`)
		p.raw(`<button type="submit">`)
		p.t("ResetTitle")
		p.raw(`</button></form></main>`)
		p.close()
	})
}

// ResetPasswordPage renders the new-password form for a reset token, or an
// invalid-token notice.
func ResetPasswordPage(token string, valid bool, notice string) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "ResetTitle"))
		p.raw(`<main class="auth"><h1>`)
		p.t("ResetTitle")
		p.raw(`</h1>`)
		if notice != "" {
			p.raw(`<p class="notice">`)
			p.text(notice)
			p.raw(`</p>`)
		}
		if valid {
			p.raw(`<form method="post" action="` + p.href("/password/reset") + `">`)
			p.csrfField()
			p.raw(`<input type="hidden" name="token" value="` + templ.EscapeString(token) + `">`)
			p.raw(`<input type="password" name="password" required placeholder="new password">`)
			p.raw(`<button type="submit">`)
			p.t("ResetTitle")
			p.raw(`</button></form>`)
		} else if notice == "" {
			p.raw(`<p class="error">`)
			p.t("ResetInvalid")
			p.raw(`</p>`)
		}
		p.raw(`</main>`)
		p.close()
	})
}

// LessonsPage lists a tutor's lessons with a creation form.
func LessonsPage(lessons []model.Lesson, students []model.Student) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "LessonsTitle"))
		p.nav()
		p.raw(`<main><h1>`)
		p.t("LessonsTitle")
		p.raw(`</h1>`)

		if len(lessons) == 0 {
			p.raw(`<p>`)
			p.t("NoLessons")
			p.raw(`</p>`)
		} else {
			p.raw(`<ul class="lessons">`)
			for _, l := range lessons {
				p.raw(`<li><a href="` + p.href(fmt.Sprintf("/lessons/%d", l.ID)) + `">`)
				if l.Title != "" {
					p.text(l.Title)
				} else {
					p.text(fmt.Sprintf("Lesson %d", l.ID))
				}
				p.raw(`</a>`)
				if l.GeneratedAt != nil {
					p.raw(` <span class="generated">&#10003;</span>`)
				}
				p.raw(`</li>`)
			}
			p.raw(`</ul>`)
		}

		p.raw(`<form method="post" action="` + p.href("/lessons") + `">`)
		p.csrfField()
		p.raw(`<input type="text" name="title" placeholder="lesson title">`)
		p.raw(`<select name="student_id">`)
		for _, st := range students {
			p.raw(`<option value="` + fmt.Sprintf("%d", st.ID) + `">`)
			p.text(st.Name)
			p.raw(`</option>`)
		}
		p.raw(`</select><button type="submit">+</button></form></main>`)
		p.close()
	})
}

// LessonPage is the tutor-facing lesson page with the generation form and
// the rendered material.
func LessonPage(view model.LessonView, mat *material.Template, shareURL string) templ.Component {
	return component(func(p *page) {
		title := view.Lesson.Title
		if title == "" {
			title = fmt.Sprintf("Lesson %d", view.Lesson.ID)
		}
		p.open(title)
		p.nav()
		p.raw(`<main><h1>`)
		p.text(title)
		p.raw(`</h1><p class="student">`)
		p.text(view.Student.Name)
		p.raw(` &middot; `)
		p.text(string(view.Student.Level))
		p.raw(`</p>`)

		p.raw(`<form method="post" action="` + p.href(fmt.Sprintf("/lessons/%d/generate", view.Lesson.ID)) + `" class="generate">`)
		p.csrfField()
		p.raw(`<input type="text" name="sub_topic_name" required placeholder="sub-topic">`)
		p.raw(`<select name="sub_topic_category">`)
		for _, c := range []string{model.CategoryGrammar, model.CategoryConversation, model.CategoryVocabulary, model.CategoryPronunciation} {
			p.raw(`<option>`)
			p.text(c)
			p.raw(`</option>`)
		}
		p.raw(`</select><button type="submit">`)
		p.t("GenerateButton")
		p.raw(`</button></form>`)

		p.raw(`<form method="post" action="` + p.href(fmt.Sprintf("/lessons/%d/share", view.Lesson.ID)) + `" class="inline">`)
		p.csrfField()
		p.raw(`<button type="submit">`)
		p.t("ShareButton")
		p.raw(`</button></form>`)
		if shareURL != "" {
			p.raw(`<p class="share-url"><code>`)
			p.text(shareURL)
			p.raw(`</code></p>`)
		}

		if p.err == nil {
			p.err = render.Material(mat, render.ModeTutor).Render(p.ctx, p.w)
		}
		p.raw(`</main>`)
		p.close()
	})
}

// SharedPage is the student-facing page behind a share link.
func SharedPage(view model.LessonView, mat *material.Template) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "SharedTitle"))
		p.raw(`<main class="shared"><h1>`)
		p.t("SharedTitle")
		p.raw(`</h1>`)
		if view.Lesson.Title != "" {
			p.raw(`<h2>`)
			p.text(view.Lesson.Title)
			p.raw(`</h2>`)
		}
		if p.err == nil {
			p.err = render.Material(mat, render.ModeStudent).Render(p.ctx, p.w)
		}
		p.raw(`</main>`)
		p.close()
	})
}

// SharedErrorPage covers unknown or expired share links.
func SharedErrorPage() templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "SharedTitle"))
		p.raw(`<main class="shared"><p class="error">`)
		p.t("SharedExpired")
		p.raw(`</p></main>`)
		p.close()
	})
}

// StudentsPage lists a tutor's students with a creation form.
func StudentsPage(students []model.Student) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "StudentsTitle"))
		p.nav()
		p.raw(`<main><h1>`)
		p.t("StudentsTitle")
		p.raw(`</h1>`)
		if len(students) == 0 {
			p.raw(`<p>`)
			p.t("NoStudents")
			p.raw(`</p>`)
		} else {
			p.raw(`<table class="students"><tbody>`)
			for _, st := range students {
				p.raw(`<tr><td>`)
				p.text(st.Name)
				p.raw(`</td><td>`)
				p.text(string(st.Level))
				p.raw(`</td><td>`)
				p.text(st.TargetLanguage)
				p.raw(`</td></tr>`)
			}
			p.raw(`</tbody></table>`)
		}
		p.raw(`<form method="post" action="` + p.href("/students") + `">`)
		p.csrfField()
		p.raw(`<input type="text" name="name" required placeholder="name">`)
		p.raw(`<input type="text" name="target_language" placeholder="target language" value="English">`)
		p.raw(`<input type="text" name="native_language" placeholder="native language">`)
		p.raw(`<select name="level">`)
		for _, l := range []model.Level{model.LevelA1, model.LevelA2, model.LevelB1, model.LevelB2, model.LevelC1, model.LevelC2} {
			p.raw(`<option>`)
			p.text(string(l))
			p.raw(`</option>`)
		}
		p.raw(`</select><textarea name="notes" placeholder="notes"></textarea>`)
		p.raw(`<button type="submit">+</button></form></main>`)
		p.close()
	})
}

// AdminTutorsPage lists tutor accounts with create/toggle controls.
func AdminTutorsPage(tutors []model.Tutor, msg string) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "TutorsTitle"))
		p.nav()
		p.raw(`<main><h1>`)
		p.t("TutorsTitle")
		p.raw(`</h1>`)
		if msg != "" {
			p.raw(`<p class="notice">`)
			p.text(msg)
			p.raw(`</p>`)
		}
		p.raw(`<table class="tutors"><tbody>`)
		for _, t := range tutors {
			p.raw(`<tr><td>`)
			p.text(t.Email)
			p.raw(`</td><td>`)
			p.text(string(t.Role))
			p.raw(`</td><td>`)
			if t.Active {
				p.text("active")
			} else {
				p.text("disabled")
			}
			p.raw(`</td><td><form method="post" action="` + p.href(fmt.Sprintf("/admin/tutors/%d/toggle", t.ID)) + `" class="inline">`)
			p.csrfField()
			p.raw(`<button type="submit">toggle</button></form></td></tr>`)
		}
		p.raw(`</tbody></table>`)
		p.raw(`<form method="post" action="` + p.href("/admin/tutors") + `">`)
		p.csrfField()
		p.raw(`<input type="email" name="email" required placeholder="email">`)
		p.raw(`<input type="text" name="display_name" placeholder="display name">`)
		p.raw(`<input type="password" name="password" required placeholder="password">`)
		p.raw(`<select name="role"><option>tutor</option><option>admin</option></select>`)
		p.raw(`<button type="submit">+</button></form></main>`)
		p.close()
	})
}

// AdminTemplatesPage lists lesson templates with the upload form.
func AdminTemplatesPage(templates []model.LessonTemplate, msg string) templ.Component {
	return component(func(p *page) {
		p.open(appI18n.T(p.ctx, "TemplatesTitle"))
		p.nav()
		p.raw(`<main><h1>`)
		p.t("TemplatesTitle")
		p.raw(`</h1>`)
		if msg != "" {
			p.raw(`<p class="notice">`)
			p.text(msg)
			p.raw(`</p>`)
		}
		p.raw(`<table class="templates"><tbody>`)
		for _, t := range templates {
			p.raw(`<tr><td>`)
			p.text(t.Name)
			p.raw(`</td><td>`)
			p.text(t.Category)
			p.raw(`</td><td>`)
			p.text(string(t.Level))
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
		p.raw(`<form method="post" action="` + p.href("/admin/templates") + `" enctype="multipart/form-data">`)
		p.csrfField()
		p.raw(`<input type="file" name="templates_file" accept="application/json" required>`)
		p.raw(`<button type="submit">`)
		p.t("UploadTemplates")
		p.raw(`</button></form></main>`)
		p.close()
	})
}
