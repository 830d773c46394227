package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/uachado/uachado/pkg/rule"
)

// reportForm 模拟失物报告表单的校验结构.
type reportForm struct {
	Description string `rule:"required"`
	Tag         string `rule:"required"`
	Email       string `rule:"required,email"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对报告表单的验证.
func TestValidateStruct(t *testing.T) {
	valid := reportForm{Description: "Carregador branco", Tag: "Carregadores", Email: "aluno@ua.pt"}

	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("Expected no error for valid form, got %v", err)
	}

	// 缺少描述
	missingDesc := reportForm{Description: "", Tag: "Carregadores", Email: "aluno@ua.pt"}
	if err := rule.ValidateStruct(missingDesc); err == nil {
		t.Error("Expected error for form without description, got nil")
	}

	// 邮箱格式错误
	badEmail := reportForm{Description: "Carregador branco", Tag: "Carregadores", Email: "aluno"}
	if err := rule.ValidateStruct(badEmail); err == nil {
		t.Error("Expected error for form with malformed email, got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("achados@ua.pt", "required,email"); err != nil {
		t.Errorf("Expected no error for valid email, got %v", err)
	}

	if err := rule.ValidateVar("not-an-email", "required,email"); err == nil {
		t.Error("Expected error for invalid email, got nil")
	}

	if err := rule.ValidateVar(3, "gte=1"); err != nil {
		t.Errorf("Expected no error for valid point id, got %v", err)
	}

	if err := rule.ValidateVar(0, "gte=1"); err == nil {
		t.Error("Expected error for non-positive point id, got nil")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("known_state", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		switch s {
		case "stored", "reported", "retrieved", "archived":
			return true
		}

		return false
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	if err := rule.ValidateVar("stored", "known_state"); err != nil {
		t.Errorf("Expected no error for known state, got %v", err)
	}

	if err := rule.ValidateVar("lost", "known_state"); err == nil {
		t.Error("Expected error for unknown state, got nil")
	}
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("contact_email", "required,email")

	if err := rule.ValidateVar("dono@ua.pt", "contact_email"); err != nil {
		t.Errorf("Expected no error for valid contact email, got %v", err)
	}

	if err := rule.ValidateVar("", "contact_email"); err == nil {
		t.Error("Expected error for empty contact email, got nil")
	}
}
