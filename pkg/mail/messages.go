package mail

import (
	"fmt"
	"time"
)

// 面向用户的邮件文案，全部为葡萄牙语.
const (
	subjectMatchFound     = "O teu item foi UAchado!"
	subjectReportReceived = "O teu report foi adicionado!"
	subjectItemRetrieved  = "UAchaste o teu item!"

	signature = "na UA, nada se perde, tudo se UAcha\n\n\nCumprimentos,\nEquipa do UAchado"
)

// MatchFoundMessage 拾得物品与既有失物报告匹配时发给报告人的通知.
func MatchFoundMessage(tag, description string) (subject, body string) {
	body = fmt.Sprintf(`Um item parecido ao que reportaste acabou de ser UAchado num dos nossos pontos.
Dá uma olhada, pode ser que seja teu!


Item: %s
Descrição: %s


%s`, tag, description, signature)

	return subjectMatchFound, body
}

// ReportReceivedMessage 失物报告提交后的确认通知.
func ReportReceivedMessage(tag, description, email string) (subject, body string) {
	body = fmt.Sprintf(`O teu relatório de perda acabou de chegar ao UAchado.


Item: %s
Descrição: %s
Email: %s


Assim que encontrarmos um item que possa ser o teu entraremos em contacto.
Tem atenção à tua caixa de correio. O nosso mail pode ser reencaminhado para o teu spam.


%s`, tag, description, email, signature)

	return subjectReportReceived, body
}

// RetrievedMessage 物品被领取后发给领取人的确认通知.
func RetrievedMessage(tag, description, email string, date time.Time) (subject, body string) {
	body = fmt.Sprintf(`Acabaste de levantar um item!


Item: %s
Descrição: %s
Email: %s
Data: %s


Qualquer dúvida entra em contacto com a equipa do UAchado em uachado.app@gmail.com!


Obrigado por utilizares o UAchado!
%s`, tag, description, email, date.Format("2006-01-02"), signature)

	return subjectItemRetrieved, body
}
