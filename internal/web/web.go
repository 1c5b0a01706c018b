// Package web serves the server-rendered directory, creation and profile pages.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"

	"medilinko/internal/model"
	"medilinko/internal/service"
	"medilinko/internal/utils"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var recordRoles = []string{model.RoleUser, model.RoleDoctor, model.RolePharmacist}

// LoadTemplates installs the page templates on the engine
func LoadTemplates(engine *gin.Engine) error {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join":  strings.Join,
		"money": money,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)
	return nil
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

// Pages renders the web client
type Pages struct {
	users service.UserService
	qr    service.QRService
}

func NewPages(users service.UserService, qr service.QRService) *Pages {
	return &Pages{users: users, qr: qr}
}

// userView is a record flattened for the templates
type userView struct {
	ID           string
	QRCodeID     string
	FullName     string
	Email        string
	Phone        string
	Role         string
	Demographics model.Demographics
	Doctor       *model.DoctorDetails
	Pharmacist   *model.PharmacistDetails
	ProfileURL   string
	QRDataURL    template.URL
}

func (p *Pages) newUserView(u *model.User, qrSize int) userView {
	v := userView{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.EffectiveRole(),
		Demographics: u.Demographics,
	}
	switch d := u.Details.(type) {
	case *model.DoctorDetails:
		v.Doctor = d
	case *model.PharmacistDetails:
		v.Pharmacist = d
	}
	if u.QRCodeID == nil {
		return v
	}

	v.QRCodeID = *u.QRCodeID
	v.ProfileURL = p.qr.ProfileURL(v.QRCodeID)
	img, err := p.qr.RenderPNG(v.ProfileURL, utils.QROptions{Size: qrSize, Margin: utils.DefaultQROptions.Margin})
	if err != nil {
		log.Printf("Error rendering QR preview for %s: %v", u.ID, err)
		return v
	}
	// data URLs are rejected by html/template unless marked safe
	v.QRDataURL = template.URL(utils.PNGDataURL(img))
	return v
}

func (p *Pages) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{"Title": "Home"})
}

func (p *Pages) Directory(c *gin.Context) {
	role := c.Query("role")
	var filters model.UserFilters
	if role != "" {
		filters.Role = &role
	}

	data := gin.H{"Title": "Directory", "Role": role, "Roles": recordRoles}
	users, err := p.users.ListUsers(c.Request.Context(), filters)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			data["Error"] = err.Error()
			c.HTML(http.StatusBadRequest, "users.html", data)
			return
		}
		p.renderError(c, err)
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, p.newUserView(&users[i], 120))
	}
	data["Users"] = views
	c.HTML(http.StatusOK, "users.html", data)
}

// CreateForm renders the creation form. Switching role resubmits the form
// here with GET, so entered values are carried over via the query string.
func (p *Pages) CreateForm(c *gin.Context) {
	form := c.Request.URL.Query()
	if !model.IsRecordRole(form.Get("role")) {
		form.Set("role", model.RoleUser)
	}
	c.HTML(http.StatusOK, "create_user.html", gin.H{
		"Title": "Create profile",
		"Roles": recordRoles,
		"Form":  form,
	})
}

func (p *Pages) CreateSubmit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		p.renderForm(c, http.StatusBadRequest, nil, err.Error())
		return
	}
	form := c.Request.PostForm

	req, err := NormalizeForm(form)
	if err != nil {
		p.renderForm(c, http.StatusBadRequest, form, err.Error())
		return
	}

	user, err := p.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			p.renderForm(c, http.StatusBadRequest, form, err.Error())
			return
		}
		log.Printf("Error creating user from form: %v", err)
		p.renderForm(c, http.StatusInternalServerError, form, "Something went wrong! Please try again.")
		return
	}
	if user.QRCodeID == nil {
		c.Redirect(http.StatusSeeOther, "/users")
		return
	}
	c.Redirect(http.StatusSeeOther, service.ProfilePathPrefix+url.PathEscape(*user.QRCodeID))
}

func (p *Pages) renderForm(c *gin.Context, status int, form url.Values, message string) {
	c.HTML(status, "create_user.html", gin.H{
		"Title": "Create profile",
		"Roles": recordRoles,
		"Form":  form,
		"Error": message,
	})
}

func (p *Pages) Profile(c *gin.Context) {
	user, err := p.users.GetUserByQRCodeID(c.Request.Context(), c.Param("qrCodeId"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.HTML(http.StatusNotFound, "not_found.html", gin.H{
				"Title": "Not found",
				"Error": "No profile matches this QR code.",
			})
			return
		}
		p.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Title": user.FullName,
		"User":  p.newUserView(user, utils.DefaultQROptions.Size),
	})
}

func (p *Pages) renderError(c *gin.Context, err error) {
	log.Printf("Error rendering %s: %v", c.Request.URL.Path, err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Title": "Error", "Error": err.Error()})
}

// RegisterRoutes registers the page routes
func (p *Pages) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", p.Home)
	r.GET("/users", p.Directory)
	r.GET("/create-user", p.CreateForm)
	r.POST("/create-user", p.CreateSubmit)
	r.GET("/profile/:qrCodeId", p.Profile)
}
