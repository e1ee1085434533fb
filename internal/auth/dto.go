// AngelaMos | 2026
// dto.go

package auth

type LoginForm struct {
	Email      string `form:"email"       validate:"required,max=64,email"`
	Password   string `form:"password"    validate:"required"`
	RememberMe bool   `form:"remember_me"`
}

type RegisterForm struct {
	Email     string `form:"email"     validate:"required,max=64,email"`
	Username  string `form:"username"  validate:"required,max=64,username"`
	Password  string `form:"password"  validate:"required,eqfield=Password2"`
	Password2 string `form:"password2" validate:"required"`
}

type ChangePasswordForm struct {
	OldPassword string `form:"old_password" validate:"required"`
	Password    string `form:"password"     validate:"required,eqfield=Password2"`
	Password2   string `form:"password2"    validate:"required"`
}

type ResetRequestForm struct {
	Email string `form:"email" validate:"required,max=64,email"`
}

type ResetForm struct {
	Password  string `form:"password"  validate:"required,eqfield=Password2"`
	Password2 string `form:"password2" validate:"required"`
}

type ChangeEmailForm struct {
	Email    string `form:"email"    validate:"required,max=64,email"`
	Password string `form:"password" validate:"required"`
}
