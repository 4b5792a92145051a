package console

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"research-admin/internal/shared/model"
)

// formValidator 表单校验器，字段名取 field 标签
type formValidator struct {
	validate *validator.Validate
}

var forms = newFormValidator()

func newFormValidator() *formValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})

	v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).Valid()
	})
	// 受信任的询盘员可不附截图
	v.RegisterValidation("evidence", func(fl validator.FieldLevel) bool {
		if fl.Field().Int() > 0 {
			return true
		}
		trusted := fl.Parent().FieldByName("Trusted")
		return trusted.IsValid() && trusted.Bool()
	})

	return &formValidator{validate: v}
}

// messages 以 "字段.规则" 为键的错误文案
type messages map[string]string

// check 校验结构体并转换为 ValidationErrors，每个字段只保留第一条
func (f *formValidator) check(s any, msgs messages) error {
	err := f.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		field := fe.Field()
		if errs.For(field) != "" {
			continue
		}
		msg, ok := msgs[field+"."+fe.Tag()]
		if !ok {
			msg = field + " is invalid"
		}
		errs.add(field, msg)
	}
	return errs.orNil()
}

// targetInput 调研目标，名称与链接共用一个错误字段
type targetInput struct {
	Country      string             `field:"country" validate:"required"`
	Type         model.ResearchType `field:"type"`
	CompanyName  string             `field:"company" validate:"required_if=Type WEBSITE"`
	CompanyLink  string             `field:"company" validate:"required_if=Type WEBSITE"`
	PersonName   string             `field:"person" validate:"required_unless=Type WEBSITE"`
	LinkedinLink string             `field:"person" validate:"required_unless=Type WEBSITE"`
}

func newTargetInput(t model.ResearchType, companyName, companyLink, personName, linkedinLink, country string) targetInput {
	return targetInput{
		Country:      strings.TrimSpace(country),
		Type:         t,
		CompanyName:  strings.TrimSpace(companyName),
		CompanyLink:  strings.TrimSpace(companyLink),
		PersonName:   strings.TrimSpace(personName),
		LinkedinLink: strings.TrimSpace(linkedinLink),
	}
}

// checkTarget 缺国家时只报国家
func (f *formValidator) checkTarget(in targetInput, msgs messages) error {
	err := f.check(in, msgs)
	var errs ValidationErrors
	if errors.As(err, &errs) {
		if msg := errs.For("country"); msg != "" {
			return ValidationErrors{{Field: "country", Message: msg}}
		}
	}
	return err
}

var (
	researchMessages = messages{
		"country.required":       "Country is required",
		"company.required_if":    "Company name and link are required",
		"person.required_unless": "Person name and LinkedIn link are required",
	}
	resubmitMessages = messages{
		"country.required":       "Country is required",
		"company.required_if":    "Company name and link required",
		"person.required_unless": "Person name and LinkedIn link required",
	}
)

type inquiryInput struct {
	Research    string `field:"research" validate:"required"`
	Screenshots int    `field:"screenshots" validate:"evidence"`
	Trusted     bool
}

var inquiryMessages = messages{
	"research.required":    "Select a research record",
	"screenshots.evidence": "At least one screenshot is required",
}

type userInput struct {
	Name     string     `field:"name" validate:"required,min=2"`
	Email    string     `field:"email" validate:"required,email"`
	Password string     `field:"password" validate:"required,min=6"`
	Role     model.Role `field:"role" validate:"required,role"`
	Category string     `field:"category" validate:"required"`
}

var userMessages = messages{
	"name.required":     "Name is required",
	"name.min":          "Name must be at least 2 characters",
	"email.required":    "Email is required",
	"email.email":       "Enter a valid email address",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
	"role.required":     "Role is required",
	"role.role":         "Unknown role",
	"category.required": "Category is required",
}

type categoryInput struct {
	Name         string `field:"name" validate:"required"`
	CooldownDays int    `field:"cooldownDays" validate:"gte=1"`
}

var categoryMessages = messages{
	"name.required":    "Name is required",
	"cooldownDays.gte": "Cooldown must be at least 1 day",
}

type paymentInput struct {
	Payment string `field:"payment" validate:"required"`
	Channel string `field:"paymentChannel" validate:"required"`
}

var paymentMessages = messages{
	"payment.required":        "Select a payment",
	"paymentChannel.required": "Payment channel is required",
}
