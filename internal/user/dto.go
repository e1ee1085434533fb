// AngelaMos | 2026
// dto.go

package user

type ProfileForm struct {
	Name            string `form:"name"             validate:"max=64"`
	Location        string `form:"location"         validate:"max=64"`
	AboutMe         string `form:"about_me"`
	DefaultGravatar string `form:"default_gravatar" validate:"required,oneof=mp identicon monsterid wavatar retro robohash"`
}

func profileFormFrom(u *User) ProfileForm {
	return ProfileForm{
		Name:            u.Name,
		Location:        u.Location,
		AboutMe:         u.AboutMe,
		DefaultGravatar: u.DefaultGravatar,
	}
}

func (f ProfileForm) input() ProfileInput {
	return ProfileInput{
		Name:            f.Name,
		Location:        f.Location,
		AboutMe:         f.AboutMe,
		DefaultGravatar: f.DefaultGravatar,
	}
}

type AdminProfileForm struct {
	Email     string `form:"email"     validate:"required,max=64,email"`
	Username  string `form:"username"  validate:"required,max=64,username"`
	Confirmed bool   `form:"confirmed"`
	RoleID    int64  `form:"role"      validate:"required"`
	Name      string `form:"name"      validate:"max=64"`
	Location  string `form:"location"  validate:"max=64"`
	AboutMe   string `form:"about_me"`
}

func adminFormFrom(u *User) AdminProfileForm {
	return AdminProfileForm{
		Email:     u.Email,
		Username:  u.Username,
		Confirmed: u.Confirmed,
		RoleID:    u.RoleID,
		Name:      u.Name,
		Location:  u.Location,
		AboutMe:   u.AboutMe,
	}
}

func (f AdminProfileForm) input() AccountInput {
	return AccountInput{
		Email:     f.Email,
		Username:  f.Username,
		Confirmed: f.Confirmed,
		RoleID:    f.RoleID,
		Name:      f.Name,
		Location:  f.Location,
		AboutMe:   f.AboutMe,
	}
}
